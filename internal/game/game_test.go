package game

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moltlabs/molt-uno/internal/deck"
	"github.com/moltlabs/molt-uno/internal/models"
)

// setupTestGame builds a started session with a seeded shuffle so deals are
// reproducible.
func setupTestGame(t *testing.T, numPlayers int) (*Game, []*models.Player) {
	t.Helper()
	g := New("TEST42", rand.New(rand.NewSource(1)))
	players := make([]*models.Player, numPlayers)
	for i := range players {
		p := &models.Player{ID: uuid.New(), Name: fmt.Sprintf("player-%d", i), Connected: true}
		players[i] = p
		require.NoError(t, g.AddPlayer(p))
	}
	require.NoError(t, g.Start())
	return g, players
}

// setTable forces a known top discard and active color for scenario tests.
func setTable(g *Game, top models.Card) {
	g.DiscardPile = []models.Card{top}
	g.ActiveColor = top.Color
}

func allCards(g *Game) []models.Card {
	cards := append([]models.Card{}, g.DrawPile...)
	cards = append(cards, g.DiscardPile...)
	for _, p := range g.Players {
		cards = append(cards, p.Hand...)
	}
	return cards
}

// assertFullDeck checks the union of hands and piles against the canonical
// 108-card multiset.
func assertFullDeck(t *testing.T, g *Game) {
	t.Helper()
	got := map[models.Card]int{}
	for _, c := range allCards(g) {
		got[c]++
	}
	want := map[models.Card]int{}
	for _, c := range deck.Build() {
		want[c]++
	}
	assert.Equal(t, want, got, "hands + piles must always form the full deck")
}

func TestAddPlayerLimits(t *testing.T) {
	g := New("TEST42", rand.New(rand.NewSource(1)))
	for i := 0; i < MaxPlayers; i++ {
		require.NoError(t, g.AddPlayer(&models.Player{ID: uuid.New()}))
	}
	assert.ErrorIs(t, g.AddPlayer(&models.Player{ID: uuid.New()}), ErrSessionFull)

	require.NoError(t, g.Start())
	assert.ErrorIs(t, g.AddPlayer(&models.Player{ID: uuid.New()}), ErrInvalidState)
}

func TestStartRequiresTwoPlayers(t *testing.T) {
	g := New("TEST42", rand.New(rand.NewSource(1)))
	require.NoError(t, g.AddPlayer(&models.Player{ID: uuid.New()}))
	assert.ErrorIs(t, g.Start(), ErrInsufficientPlayers)
	assert.Equal(t, StatusWaiting, g.Status)
}

func TestStartDealsAndSeedsDiscard(t *testing.T) {
	g, players := setupTestGame(t, 4)

	assert.Equal(t, StatusPlaying, g.Status)
	assert.Equal(t, 0, g.Current)
	assert.Equal(t, 1, g.Direction)
	for _, p := range players {
		assert.Len(t, p.Hand, 7)
	}
	require.Len(t, g.DiscardPile, 1)
	top := g.DiscardPile[0]
	assert.NotEqual(t, models.KindWild, top.Kind, "seed card is re-drawn until non-wild")
	assert.Equal(t, top.Color, g.ActiveColor)
	assert.Len(t, g.DrawPile, deck.Size-4*7-1)
	assertFullDeck(t, g)

	assert.ErrorIs(t, g.Start(), ErrInvalidState, "a session starts exactly once")
}

func TestPlayCardNotYourTurn(t *testing.T) {
	g, players := setupTestGame(t, 3)
	notActive := players[1]
	handBefore := append([]models.Card{}, notActive.Hand...)
	discardBefore := len(g.DiscardPile)

	_, err := g.PlayCard(notActive.ID, 0, "")
	assert.ErrorIs(t, err, ErrNotYourTurn)
	assert.Equal(t, handBefore, notActive.Hand)
	assert.Len(t, g.DiscardPile, discardBefore)
	assert.Equal(t, 0, g.Current)
}

func TestPlayCardIllegal(t *testing.T) {
	g, players := setupTestGame(t, 2)
	setTable(g, models.Card{Kind: models.KindNumber, Color: models.ColorRed, Value: "5"})
	players[0].Hand = []models.Card{
		{Kind: models.KindNumber, Color: models.ColorBlue, Value: "7"},
		{Kind: models.KindNumber, Color: models.ColorRed, Value: "9"},
	}

	_, err := g.PlayCard(players[0].ID, 0, "")
	assert.ErrorIs(t, err, ErrIllegalPlay)
	assert.Len(t, players[0].Hand, 2)
	assert.Equal(t, 0, g.Current)

	_, err = g.PlayCard(players[0].ID, 5, "")
	assert.ErrorIs(t, err, ErrIllegalPlay, "out-of-range hand index")
}

func TestPlayNumberCard(t *testing.T) {
	g, players := setupTestGame(t, 3)
	setTable(g, models.Card{Kind: models.KindNumber, Color: models.ColorRed, Value: "5"})
	card := models.Card{Kind: models.KindNumber, Color: models.ColorRed, Value: "9"}
	players[0].Hand = []models.Card{card, {Kind: models.KindNumber, Color: models.ColorBlue, Value: "2"}}

	res, err := g.PlayCard(players[0].ID, 0, "")
	require.NoError(t, err)
	assert.Equal(t, card, res.Card)
	assert.Equal(t, uuid.Nil, res.Winner)
	assert.Equal(t, card, g.DiscardPile[len(g.DiscardPile)-1])
	assert.Equal(t, models.ColorRed, g.ActiveColor)
	assert.Equal(t, 1, g.Current, "plain numbers advance exactly one seat")
}

func TestValueMatchAcrossColors(t *testing.T) {
	g, players := setupTestGame(t, 2)
	setTable(g, models.Card{Kind: models.KindNumber, Color: models.ColorRed, Value: "5"})
	card := models.Card{Kind: models.KindNumber, Color: models.ColorGreen, Value: "5"}
	players[0].Hand = []models.Card{card, {Kind: models.KindNumber, Color: models.ColorBlue, Value: "2"}}

	_, err := g.PlayCard(players[0].ID, 0, "")
	require.NoError(t, err, "matching the top card's value is legal regardless of color")
	assert.Equal(t, models.ColorGreen, g.ActiveColor, "active color follows the played card")
}

func TestWildRequiresColorChoice(t *testing.T) {
	g, players := setupTestGame(t, 2)
	setTable(g, models.Card{Kind: models.KindNumber, Color: models.ColorRed, Value: "5"})
	wild := models.Card{Kind: models.KindWild, Color: models.ColorNone, Value: models.ValueWild}
	players[0].Hand = []models.Card{wild, {Kind: models.KindNumber, Color: models.ColorBlue, Value: "2"}}

	_, err := g.PlayCard(players[0].ID, 0, "")
	assert.ErrorIs(t, err, ErrInvalidColorChoice)
	_, err = g.PlayCard(players[0].ID, 0, models.ColorNone)
	assert.ErrorIs(t, err, ErrInvalidColorChoice)
	require.Len(t, players[0].Hand, 2, "rejected plays leave the hand alone")

	_, err = g.PlayCard(players[0].ID, 0, models.ColorGreen)
	require.NoError(t, err)
	assert.Equal(t, models.ColorGreen, g.ActiveColor)
}

func TestReverseWithTwoPlayersActsAsSkip(t *testing.T) {
	g, players := setupTestGame(t, 2)
	setTable(g, models.Card{Kind: models.KindNumber, Color: models.ColorRed, Value: "5"})
	players[0].Hand = []models.Card{
		{Kind: models.KindAction, Color: models.ColorRed, Value: models.ValueReverse},
		{Kind: models.KindNumber, Color: models.ColorBlue, Value: "2"},
	}

	_, err := g.PlayCard(players[0].ID, 0, "")
	require.NoError(t, err)
	assert.Equal(t, 0, g.Current, "turn comes straight back to the player who reversed")
	assert.Equal(t, 1, g.Direction)
}

func TestReverseFlipsDirection(t *testing.T) {
	g, players := setupTestGame(t, 3)
	setTable(g, models.Card{Kind: models.KindNumber, Color: models.ColorRed, Value: "5"})
	players[0].Hand = []models.Card{
		{Kind: models.KindAction, Color: models.ColorRed, Value: models.ValueReverse},
		{Kind: models.KindNumber, Color: models.ColorBlue, Value: "2"},
	}

	_, err := g.PlayCard(players[0].ID, 0, "")
	require.NoError(t, err)
	assert.Equal(t, -1, g.Direction)
	assert.Equal(t, 2, g.Current, "nobody is skipped, play just runs the other way")
}

func TestSkipLandsTwoSeatsAway(t *testing.T) {
	g, players := setupTestGame(t, 4)
	setTable(g, models.Card{Kind: models.KindNumber, Color: models.ColorRed, Value: "5"})
	g.Current = 1 // player B
	players[1].Hand = []models.Card{
		{Kind: models.KindAction, Color: models.ColorRed, Value: models.ValueSkip},
		{Kind: models.KindNumber, Color: models.ColorBlue, Value: "2"},
	}

	_, err := g.PlayCard(players[1].ID, 0, "")
	require.NoError(t, err)
	assert.Equal(t, 3, g.Current, "C is skipped, D is up")
}

func TestDraw2(t *testing.T) {
	g, players := setupTestGame(t, 2)
	setTable(g, models.Card{Kind: models.KindNumber, Color: models.ColorRed, Value: "5"})
	players[0].Hand = []models.Card{
		{Kind: models.KindAction, Color: models.ColorRed, Value: models.ValueDraw2},
		{Kind: models.KindNumber, Color: models.ColorBlue, Value: "2"},
	}
	bBefore := len(players[1].Hand)

	_, err := g.PlayCard(players[0].ID, 0, "")
	require.NoError(t, err)
	assert.Len(t, players[1].Hand, bBefore+2)
	assert.Equal(t, 0, g.Current, "the drawing player loses their turn")
}

func TestDraw4AppliesChosenColor(t *testing.T) {
	g, players := setupTestGame(t, 3)
	setTable(g, models.Card{Kind: models.KindNumber, Color: models.ColorRed, Value: "5"})
	players[0].Hand = []models.Card{
		{Kind: models.KindWild, Color: models.ColorNone, Value: models.ValueDraw4},
		{Kind: models.KindNumber, Color: models.ColorBlue, Value: "2"},
	}
	bBefore := len(players[1].Hand)

	_, err := g.PlayCard(players[0].ID, 0, models.ColorGreen)
	require.NoError(t, err)
	assert.Len(t, players[1].Hand, bBefore+4)
	assert.Equal(t, 2, g.Current, "B draws four and is skipped")
	assert.Equal(t, models.ColorGreen, g.ActiveColor)
}

func TestWinFinishesImmediately(t *testing.T) {
	g, players := setupTestGame(t, 2)
	setTable(g, models.Card{Kind: models.KindNumber, Color: models.ColorRed, Value: "5"})
	players[0].Hand = []models.Card{
		{Kind: models.KindAction, Color: models.ColorRed, Value: models.ValueDraw2},
	}
	bBefore := len(players[1].Hand)

	res, err := g.PlayCard(players[0].ID, 0, "")
	require.NoError(t, err)
	assert.Equal(t, players[0].ID, res.Winner)
	assert.Equal(t, StatusFinished, g.Status)
	assert.Len(t, players[1].Hand, bBefore, "no effect resolution after the winning play")
	assert.Equal(t, 0, g.Current, "no turn advance after the winning play")

	_, err = g.PlayCard(players[1].ID, 0, "")
	assert.ErrorIs(t, err, ErrInvalidState, "a finished session accepts no plays")
}

func TestDrawCardDoesNotAdvanceTurn(t *testing.T) {
	g, players := setupTestGame(t, 2)
	before := len(players[0].Hand)

	_, err := g.DrawCard(players[1].ID)
	assert.ErrorIs(t, err, ErrNotYourTurn)

	c, err := g.DrawCard(players[0].ID)
	require.NoError(t, err)
	assert.Len(t, players[0].Hand, before+1)
	assert.Equal(t, c, players[0].Hand[len(players[0].Hand)-1])
	assert.Equal(t, 0, g.Current)

	g.AdvanceTurn()
	assert.Equal(t, 1, g.Current)
	assertFullDeck(t, g)
}

func TestDrawAndPassIsOneAtomicCommand(t *testing.T) {
	g, players := setupTestGame(t, 2)
	before := len(players[0].Hand)

	_, err := g.DrawAndPass(players[1].ID)
	assert.ErrorIs(t, err, ErrNotYourTurn)
	assert.Equal(t, 0, g.Current)

	c, err := g.DrawAndPass(players[0].ID)
	require.NoError(t, err)
	assert.Len(t, players[0].Hand, before+1)
	assert.Equal(t, c, players[0].Hand[len(players[0].Hand)-1])
	assert.Equal(t, 1, g.Current, "drawing this way ends the turn")
	assertFullDeck(t, g)

	// A failed draw must not advance the turn either.
	g.DrawPile = nil
	g.DiscardPile = g.DiscardPile[:1]
	_, err = g.DrawAndPass(players[1].ID)
	assert.ErrorIs(t, err, ErrDeckExhausted)
	assert.Equal(t, 1, g.Current)
}

func TestDrawTriggersReshuffle(t *testing.T) {
	g, players := setupTestGame(t, 2)

	// Exhaust the draw pile onto the discard pile.
	g.DiscardPile = append(g.DiscardPile, g.DrawPile...)
	g.DrawPile = nil
	top := g.DiscardPile[len(g.DiscardPile)-1]
	discardBefore := len(g.DiscardPile)

	_, err := g.DrawCard(players[0].ID)
	require.NoError(t, err)
	require.Len(t, g.DiscardPile, 1, "reshuffle leaves only the prior top card")
	assert.Equal(t, top, g.DiscardPile[0])
	assert.Len(t, g.DrawPile, discardBefore-1-1, "everything under the top, minus the drawn card")
	assertFullDeck(t, g)
}

func TestReshuffleDegenerate(t *testing.T) {
	g, players := setupTestGame(t, 2)
	g.DrawPile = nil
	g.DiscardPile = g.DiscardPile[:1]

	_, err := g.DrawCard(players[0].ID)
	assert.ErrorIs(t, err, ErrDeckExhausted)
}

func TestDeclareUno(t *testing.T) {
	g, players := setupTestGame(t, 2)

	assert.False(t, g.DeclareUno(players[0].ID), "seven cards is not a one-card hand")
	assert.False(t, players[0].CalledUno)

	players[0].Hand = players[0].Hand[:1]
	assert.True(t, g.DeclareUno(players[0].ID))
	assert.True(t, players[0].CalledUno)

	assert.False(t, g.DeclareUno(uuid.New()), "unknown player is a no-op")
}

func TestDeckInvariantThroughPlay(t *testing.T) {
	g, players := setupTestGame(t, 3)
	assertFullDeck(t, g)

	// Drive a few full rounds with draws only; draws never break the multiset.
	for i := 0; i < 9; i++ {
		_, err := g.DrawCard(players[g.Current].ID)
		require.NoError(t, err)
		g.AdvanceTurn()
		assertFullDeck(t, g)
	}
}
