// Package testutil provides testing utilities for broadphase.
//
// It is intended for tests, benchmarks and the demo CLI. It provides a
// seeded generator for random scenes and linear-scan ground truth to verify
// tree queries against.
//
// # Random Scenes
//
//	rng := testutil.NewRNG(seed)
//	spheres := rng.Spheres(1000, testutil.DefaultMaxRadius)
//	boxes := rng.AABBs(1000, 0.1)
//
// # Ground Truth
//
//	want := testutil.Overlapping(boxes, query)
//	near := testutil.Colliding(spheres, id)
package testutil
