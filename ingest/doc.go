// Package ingest reads road networks and trip requests from files.
//
// Graphs use the node-link JSON layout produced by common graph tools:
//
//	{"nodes": [{"id": 0, "lat": 40.7, "lon": -74.0}],
//	 "links": [{"source": 0, "target": 1, "weight": 12.5, "distance": 140}]}
//
// Links without a weight are rejected; speed is optional and derived from
// distance over weight when absent. Node ids may be numbers or strings.
//
// Trips use a CSV file with the header
//
//	pickup_time,start_lat,start_lon,stop_lat,stop_lon,seats,max_time
//
// where pickup_time is RFC 3339 and max_time a Go duration. The last two
// columns are optional.
package ingest
