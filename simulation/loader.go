package simulation

// Description is the declarative, transport-agnostic topology input
// accepted by Load (spec.md §6, "Topology loader"). It is the engine-side
// boundary type; any wire format (JSON, YAML, a CSV sidecar) is a concern
// for the caller to decode into this shape.
type Description struct {
	Sections    []Section    `json:"sections"`
	Connections []Connection `json:"connections"`
	Blocks      []Block      `json:"blocks"`
	Stops       []Stop       `json:"stops"`
	Spawns      []SectionID  `json:"spawns"`
	Despawns    []SectionID  `json:"despawns"`
}

// Load builds and validates a Topology from a Description, per spec.md §6:
// every referenced section must exist, every connection's endpoints must
// exist, every block must have at least one section, and every spawn and
// despawn must be a real section.
func Load(d Description) (*Topology, error) {
	t := NewTopology()
	for _, s := range d.Sections {
		t.addSection(s)
	}
	for _, c := range d.Connections {
		t.addConnection(c)
	}
	for _, b := range d.Blocks {
		t.addBlock(b)
	}
	for _, s := range d.Stops {
		t.addStop(s)
	}
	for _, s := range d.Spawns {
		t.markSpawn(s)
	}
	for _, s := range d.Despawns {
		t.markDespawn(s)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}
