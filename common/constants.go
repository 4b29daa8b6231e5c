package common

import "time"

const (
	BaseWidth  = 1280
	BaseHeight = 720

	// TPS is the fixed update rate ebiten drives Game.Update at.
	TPS = 60
)

// TickDuration is the simulated time that passes per Game.Update.
const TickDuration = time.Second / TPS
