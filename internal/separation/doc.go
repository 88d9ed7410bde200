// Package separation isolates the melodic stem of an uploaded recording,
// either by copying it through unchanged or by shelling out to a neural
// source-separation tool.
package separation
