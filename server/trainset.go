package server

import "github.com/tracktitans/railstation/simulation"

// trainTypes is the catalog resolving a CSV/API train_type_id to the speed
// and default consist length used to spawn a train (WagonGap is carried but
// not read by the engine). It is a fixed literal compiled into the binary;
// LoadConfig does not touch it (spec.md §6's train-batch format references
// train_type_id by number).
var trainTypes = map[int]simulation.TrainType{
	1: {ID: 1, Name: "Local EMU", Speed: 1.2, NumWagons: 4, WagonGap: 0.05},
	2: {ID: 2, Name: "Express EMU", Speed: 1.8, NumWagons: 8, WagonGap: 0.05},
	3: {ID: 3, Name: "Freight", Speed: 0.6, NumWagons: 15, WagonGap: 0.1},
}

// trainTypeByID looks up a catalog entry. Callers reject the spawn request
// outright when ok is false.
func trainTypeByID(id int) (simulation.TrainType, bool) {
	tt, ok := trainTypes[id]
	return tt, ok
}
