// Copyright 2026 The Altarc Authors
// SPDX-License-Identifier: Apache-2.0

// Package script embeds a Lua interpreter exposing the selection
// surface to user scripts. Scripts see a single global `altarc` table
// with read and mutate functions; everything flows through the
// [Capability] interface, so a script can never reach the archive or
// the load path directly.
package script

import (
	"fmt"

	"github.com/Shopify/go-lua"

	"github.com/altarc/altarc/lib/altregistry"
	"github.com/altarc/altarc/lib/asset"
)

// Capability is the narrow surface scripts operate through. The
// bridge runtime satisfies it.
type Capability interface {
	Stages() []asset.StageID
	ListAlts(stage asset.StageID) []altregistry.Slot
	GetAlt(stage asset.StageID) int
	SetAlt(stage asset.StageID, slot int) int
	CycleAlt(stage asset.StageID) int
	RandomizeAlt(stage asset.StageID) int
	CurrentStage() asset.StageID
}

// Engine is a Lua interpreter with the altarc table registered. Not
// safe for concurrent use; callers serialize script execution.
type Engine struct {
	state *lua.State
}

// New creates an Engine bound to the given capability.
func New(capability Capability) *Engine {
	state := lua.NewState()
	lua.OpenLibraries(state)
	registerAltarcTable(state, capability)
	return &Engine{state: state}
}

// Run executes a script from source. name labels the chunk in error
// messages.
func (e *Engine) Run(name, source string) error {
	if err := lua.LoadBuffer(e.state, source, name, ""); err != nil {
		return fmt.Errorf("loading script %s: %w", name, err)
	}
	if err := e.state.ProtectedCall(0, 0, 0); err != nil {
		return fmt.Errorf("running script %s: %w", name, err)
	}
	return nil
}

// RunFile executes a script from a file.
func (e *Engine) RunFile(path string) error {
	if err := lua.LoadFile(e.state, path, ""); err != nil {
		return fmt.Errorf("loading script %s: %w", path, err)
	}
	if err := e.state.ProtectedCall(0, 0, 0); err != nil {
		return fmt.Errorf("running script %s: %w", path, err)
	}
	return nil
}

func registerAltarcTable(state *lua.State, capability Capability) {
	functions := []lua.RegistryFunction{
		{Name: "stages", Function: func(state *lua.State) int {
			stages := capability.Stages()
			state.NewTable()
			for i, stage := range stages {
				state.PushString(string(stage))
				state.RawSetInt(-2, i+1)
			}
			return 1
		}},
		{Name: "list_alts", Function: func(state *lua.State) int {
			stage := checkStage(state, 1)
			slots := capability.ListAlts(stage)
			state.NewTable()
			for i, slot := range slots {
				pushSlot(state, slot)
				state.RawSetInt(-2, i+1)
			}
			return 1
		}},
		{Name: "get_alt", Function: func(state *lua.State) int {
			stage := checkStage(state, 1)
			state.PushInteger(capability.GetAlt(stage))
			return 1
		}},
		{Name: "set_alt", Function: func(state *lua.State) int {
			stage := checkStage(state, 1)
			slot := lua.CheckInteger(state, 2)
			state.PushInteger(capability.SetAlt(stage, slot))
			return 1
		}},
		{Name: "cycle_alt", Function: func(state *lua.State) int {
			stage := checkStage(state, 1)
			state.PushInteger(capability.CycleAlt(stage))
			return 1
		}},
		{Name: "randomize_alt", Function: func(state *lua.State) int {
			stage := checkStage(state, 1)
			state.PushInteger(capability.RandomizeAlt(stage))
			return 1
		}},
		{Name: "current_stage", Function: func(state *lua.State) int {
			state.PushString(string(capability.CurrentStage()))
			return 1
		}},
	}

	state.NewTable()
	lua.SetFunctions(state, functions, 0)
	state.SetGlobal("altarc")
}

// pushSlot pushes an alternate as a Lua table:
// {slot=..., name=..., wifi_safe=..., ignore=...}.
func pushSlot(state *lua.State, slot altregistry.Slot) {
	state.NewTable()
	state.PushInteger(slot.Index)
	state.SetField(-2, "slot")
	state.PushString(slot.Name)
	state.SetField(-2, "name")
	state.PushBoolean(slot.WifiSafe)
	state.SetField(-2, "wifi_safe")
	state.PushBoolean(slot.Ignore)
	state.SetField(-2, "ignore")
}

func checkStage(state *lua.State, index int) asset.StageID {
	return asset.StageID(lua.CheckString(state, index))
}
