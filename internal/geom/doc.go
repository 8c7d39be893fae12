// Package geom owns the frame and geometry primitives of the lane
// tracking pipeline.
//
// Responsibilities: pose-relative coordinate transforms (planar yaw and
// full quaternion variants), angle normalization, planar distances,
// signed lateral error, and steering radius/curvature toward a target
// point.
// Key types: Point, Quaternion, Pose.
//
// Dependency rule: geom depends only on the standard library and gonum.
// No lane, tracking, or storage code is allowed in this package.
package geom
