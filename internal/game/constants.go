package game

// Arena and match tuning. These are gameplay constants, not configuration:
// clients hard-code the same arena geometry, so they never come from env.
const (
	ArenaRadius  = 400.0
	PlayerRadius = 25.0
	Friction     = 0.96
	BounceForce  = 8.0

	TicksPerSecond = 60

	MaxPlayers       = 8
	MinPlayers       = 2
	CountdownSeconds = 3

	// InputForce is the velocity added per normalized input frame.
	InputForce = 1.5

	// Bots push toward their target with this force, but only on a
	// fraction of ticks so they stay beatable.
	BotPushForce  = 1.2
	BotPushChance = 0.15
	BotAimNoise   = 0.3

	// Players respawn evenly on a circle at this fraction of the arena.
	SpawnDistanceFactor = 0.6
)

// Bot room pool sizing for the supervisor.
const (
	BotRoomsMin      = 2
	BotRoomsMax      = 5
	BotRoomMinBots   = 2
	BotRoomMaxBots   = 7
	BotRoomExtraOdds = 0.1
)

// playerColors is assigned round-robin by join order.
var playerColors = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4",
	"#FFEAA7", "#DDA0DD", "#98D8C8", "#F7DC6F",
}

// botNames is the pool bots draw their display names from.
var botNames = []string{
	"Борец", "Силач", "Толкач", "Сумоист", "Чемпион",
	"Гром", "Молния", "Скала", "Титан", "Воин",
	"Буря", "Вихрь", "Танк", "Медведь", "Бык",
	"Самурай", "Ниндзя", "Дракон", "Феникс", "Лев",
}
