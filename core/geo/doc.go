// Package geo holds the coordinate primitives shared by the road graph, the
// path finder and the vehicle kinematics: points, great-circle and Manhattan
// distances, scaled-integer coordinate differencing and planar bearings.
package geo
