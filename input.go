package main

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/milk9111/lofifm/common"
	"github.com/milk9111/lofifm/interact"
	"github.com/milk9111/lofifm/scene"
)

const (
	mousePointer   = 0
	gamepadPointer = 1
	touchPointer   = 100

	stickDeadzone = 0.2
	// cursorSpeed is how far the gamepad cursor moves per tick at full tilt.
	cursorSpeed = 12.0
)

// Input samples every pointing device once per tick.
type Input struct {
	// cursor is the gamepad's virtual pointer in screen coordinates.
	cursor scene.Vec3
}

func NewInput() *Input {
	return &Input{cursor: scene.Vec3{X: common.BaseWidth / 2, Y: common.BaseHeight / 2}}
}

// Pointers returns this tick's samples: the mouse, each active touch and a
// virtual cursor driven by the first gamepad.
func (i *Input) Pointers() []interact.Pointer {
	var out []interact.Pointer

	mx, my := ebiten.CursorPosition()
	out = append(out, interact.Pointer{
		ID:       mousePointer,
		Present:  ebiten.IsFocused(),
		Down:     ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft),
		Position: scene.Vec3{X: float64(mx), Y: float64(my)},
	})

	for _, id := range ebiten.AppendTouchIDs(nil) {
		tx, ty := ebiten.TouchPosition(id)
		out = append(out, interact.Pointer{
			ID:       touchPointer + int(id),
			Present:  true,
			Down:     true,
			Position: scene.Vec3{X: float64(tx), Y: float64(ty)},
		})
	}

	if ids := ebiten.GamepadIDs(); len(ids) > 0 {
		out = append(out, i.gamepad(ids[0]))
	}
	return out
}

func (i *Input) gamepad(id ebiten.GamepadID) interact.Pointer {
	lx := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickHorizontal)
	ly := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickVertical)
	if math.Hypot(lx, ly) > stickDeadzone {
		i.cursor.X = common.Clamp(i.cursor.X+lx*cursorSpeed, 0, common.BaseWidth)
		i.cursor.Y = common.Clamp(i.cursor.Y+ly*cursorSpeed, 0, common.BaseHeight)
	}
	return interact.Pointer{
		ID:       gamepadPointer,
		Present:  true,
		Down:     ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonRightBottom),
		Position: i.cursor,
	}
}

// GamepadCursor reports the virtual cursor when a gamepad is connected.
func (i *Input) GamepadCursor() (scene.Vec3, bool) {
	return i.cursor, len(ebiten.GamepadIDs()) > 0
}
