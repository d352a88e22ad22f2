// Package scene defines the canonical hierarchical building model for Mortar.
// The scene is an immutable tree of typed nodes (root → site → building →
// level → elements) mutated only through pure, structurally-shared rewrites;
// every derived structure (index, world, occupancy grid) is rebuilt from it.
package scene
