// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides identity-carrying dense float64 tensors.
//
// # Identity
//
// Every tensor carries an ID assigned at creation. Optimizer state is keyed
// by that ID, not by value: two tensors with equal contents are distinct
// parameters, and updating a parameter in place keeps its state.
//
//	a := tensor.Vector(1, 2)
//	b := tensor.Vector(1, 2)
//	a.ID() == b.ID()         // false
//	a.Clone().ID() == a.ID() // false
//
// # Data Access
//
// Data returns the backing slice; writes through it update the tensor.
//
//	w := tensor.Vector(1, 2, 3)
//	w.Data()[0] = 10
//	w.Item() // panics: Item needs exactly one element
package tensor
