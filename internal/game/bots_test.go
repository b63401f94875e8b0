package game

import (
	"math"
	"math/rand"
	"testing"
)

// botRoom builds a detached playing room with one human and n bots.
func botRoom(nBots int) *Room {
	r := newRoom("BOTS", true, true)
	reg := NewRegistry(nil)
	reg.mu.Lock()
	r.mu.Lock()
	reg.newPlayer(r, "Human", false, nil)
	for i := 0; i < nBots; i++ {
		reg.newPlayer(r, botNames[i%len(botNames)], true, nil)
	}
	r.mu.Unlock()
	reg.mu.Unlock()
	r.State = StatePlaying
	return r
}

// TestBotsChaseNearestHuman verifies bots accumulate velocity toward
// the human over many ticks even with aim noise.
func TestBotsChaseNearestHuman(t *testing.T) {
	r := botRoom(1)
	players := r.orderedPlayers()
	human, bot := players[0], players[1]

	human.X, human.Y = 200, 0
	bot.X, bot.Y = -200, 0
	bot.VX, bot.VY = 0, 0

	rng := rand.New(rand.NewSource(1))
	var sumVX float64
	for i := 0; i < 1000; i++ {
		bot.VX, bot.VY = 0, 0
		r.updateBots(rng)
		sumVX += bot.VX
	}

	if sumVX <= 0 {
		t.Errorf("Bot should push toward the human on average, got sum %f", sumVX)
	}
}

// TestBotPushProbability verifies pushes fire on roughly 15%% of ticks.
func TestBotPushProbability(t *testing.T) {
	r := botRoom(1)
	players := r.orderedPlayers()
	human, bot := players[0], players[1]
	human.X, human.Y = 100, 100

	rng := rand.New(rand.NewSource(42))
	pushes := 0
	const ticks = 10000
	for i := 0; i < ticks; i++ {
		bot.VX, bot.VY = 0, 0
		r.updateBots(rng)
		if bot.VX != 0 || bot.VY != 0 {
			pushes++
		}
	}

	ratio := float64(pushes) / ticks
	if ratio < 0.10 || ratio > 0.20 {
		t.Errorf("Push ratio %f outside expected band around %f", ratio, BotPushChance)
	}
}

// TestBotTargetPreference verifies humans are preferred over closer
// bots, and other bots are targeted once no human remains.
func TestBotTargetPreference(t *testing.T) {
	r := botRoom(2)
	players := r.orderedPlayers()
	human, bot1, bot2 := players[0], players[1], players[2]

	human.X, human.Y = 300, 0
	bot1.X, bot1.Y = 0, 0
	bot2.X, bot2.Y = 10, 0

	alive := r.alivePlayers()
	if target := nearestTarget(bot1, alive); target != human {
		t.Errorf("Bot should prefer the distant human, got %v", target)
	}

	human.Alive = false
	alive = r.alivePlayers()
	if target := nearestTarget(bot1, alive); target != bot2 {
		t.Errorf("With no humans left the nearest bot is fair game, got %v", target)
	}
}

// TestBotAloneTargetsOrigin verifies the origin fallback when a bot is
// the only one left standing.
func TestBotAloneTargetsOrigin(t *testing.T) {
	r := botRoom(1)
	players := r.orderedPlayers()
	human, bot := players[0], players[1]

	human.Alive = false
	bot.X, bot.Y = 300, 0

	if target := nearestTarget(bot, r.alivePlayers()); target != nil {
		t.Fatalf("Lone bot should have no target, got %v", target)
	}

	rng := rand.New(rand.NewSource(7))
	var sumVX float64
	for i := 0; i < 1000; i++ {
		bot.VX, bot.VY = 0, 0
		r.updateBots(rng)
		sumVX += bot.VX
	}
	if sumVX >= 0 {
		t.Errorf("Lone bot should drift toward the origin, got sum %f", sumVX)
	}
}

// TestBotAtTargetPosition verifies a bot sitting exactly on its target
// does not divide by zero.
func TestBotAtTargetPosition(t *testing.T) {
	r := botRoom(1)
	players := r.orderedPlayers()
	human, bot := players[0], players[1]

	human.X, human.Y = 50, 50
	bot.X, bot.Y = 50, 50

	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 100; i++ {
		r.updateBots(rng)
	}
	if math.IsNaN(bot.VX) || math.IsNaN(bot.VY) {
		t.Error("Bot velocity should stay finite")
	}
}

// TestHumansNotSteered verifies the AI never touches human velocity.
func TestHumansNotSteered(t *testing.T) {
	r := botRoom(2)
	human := r.orderedPlayers()[0]
	human.X, human.Y = 100, 0

	rng := rand.New(rand.NewSource(9))
	for i := 0; i < 500; i++ {
		r.updateBots(rng)
	}
	if human.VX != 0 || human.VY != 0 {
		t.Errorf("Human velocity should be untouched, got (%f, %f)", human.VX, human.VY)
	}
}
