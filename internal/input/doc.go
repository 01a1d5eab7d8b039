// Package input evaluates semantic actions from raw device input once per
// tick.
//
// # Architecture
//
// The pipeline is split across several packages, leaves first:
//
//   - value: dimension-aware action values (Bool, Axis1D, Axis2D, Axis3D)
//   - device: raw input identifiers, the per-tick Snapshot and the Reader
//     that applies modifier keys, consumption and pending inputs
//   - state: action states, transition events and read-only peer views
//   - modifier and condition: the per-binding and per-action chains
//   - binding: one raw input with its own chains, plus presets
//   - action: binding resolution and the per-action state machine
//
// This package ties them together. A Context is a prioritized bundle of
// actions. The Scheduler evaluates active contexts in descending priority
// order, so inputs consumed by a higher-priority context read as zero to
// every context evaluated after it in the same tick. The Handler owns a
// Scheduler, the registered context definitions and the active list, and
// applies activation changes only at tick boundaries.
//
// # Events
//
// Every action update may raise Started, Ongoing, Fired, Canceled or
// Completed. Events are delivered synchronously to a Sink immediately after
// the action that raised them is updated.
//
// # Usage
//
//	h := input.NewHandler(input.DefaultConfig())
//	h.Register(gameplay)
//	if err := h.Activate("gameplay"); err != nil {
//	    return err
//	}
//
//	for {
//	    h.Tick(snapshot, delta)
//	}
package input
