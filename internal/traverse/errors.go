package traverse

import "errors"

// ErrOutsideMesh reports a mesh search value outside the valid axial span.
// It signals an inconsistency between track geometry and mesh construction,
// so the sweep aborts rather than attempting repair.
var ErrOutsideMesh = errors.New("value outside axial mesh range")

// ErrBadFormation reports a traversal request that is illegal for the
// configured segment formation mode, such as a two-way sweep outside
// by-stack mode. Detected before any work begins.
var ErrBadFormation = errors.New("unsupported segment formation for this traversal")

// ErrBadModel reports a model that fails validation: a non-increasing axial
// mesh, a polar angle perpendicular to the axis, or a missing track set.
var ErrBadModel = errors.New("invalid traversal model")
