package observerproto

// Version is the observer protocol version.
const Version = "1.0"

const (
	TypeSubscribe = "SUBSCRIBE"
	TypeState     = "STATE"
)

// Client -> Server. First message on the observer WS connection.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
}

// HTTP response for GET /admin/v1/observer/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string `json:"protocol_version"`
	RunID           string `json:"run_id"`
	Tick            uint64 `json:"tick"`
	Seed            int64  `json:"seed"`
	MapSize         int    `json:"map_size"`
	TickIntervalMs  int    `json:"tick_interval_ms"`
	Mission         string `json:"mission"`
}

// StateMsg is an immutable point-in-time export of a run. Server -> Client,
// once per tick. Receivers must not mutate it; it is shared between
// observers.
type StateMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	RunID           string `json:"run_id,omitempty"`
	Iteration       uint64 `json:"iteration"`
	Mission         string `json:"mission"`

	Map         MapData         `json:"map"`
	Robots      []RobotData     `json:"robots"`
	Station     StationData     `json:"station"`
	Exploration ExplorationData `json:"exploration"`
}

type MapData struct {
	// Tiles is indexed [y][x].
	Tiles    [][]string `json:"tiles"`
	StationX int        `json:"station_x"`
	StationY int        `json:"station_y"`
}

type RobotData struct {
	ID                    uint64  `json:"id"`
	X                     int     `json:"x"`
	Y                     int     `json:"y"`
	Energy                float64 `json:"energy"`
	MaxEnergy             float64 `json:"max_energy"`
	Minerals              int     `json:"minerals"`
	ScientificData        int     `json:"scientific_data"`
	EnergyCells           int     `json:"energy_cells"`
	RobotType             string  `json:"robot_type"`
	Mode                  string  `json:"mode"`
	ExplorationPercentage float64 `json:"exploration_percentage"`
}

type StationData struct {
	EnergyReserves          int     `json:"energy_reserves"`
	CollectedMinerals       int     `json:"collected_minerals"`
	CollectedScientificData int     `json:"collected_scientific_data"`
	ExplorationPercentage   float64 `json:"exploration_percentage"`
	ConflictCount           uint64  `json:"conflict_count"`
	RobotCount              int     `json:"robot_count"`
	StatusMessage           string  `json:"status_message"`
}

type ExplorationData struct {
	// ExploredTiles is the station's global knowledge, indexed [y][x].
	ExploredTiles [][]bool `json:"explored_tiles"`
}

// Robot returns the robot with the given id.
func (s *StateMsg) Robot(id uint64) (RobotData, bool) {
	for _, r := range s.Robots {
		if r.ID == id {
			return r, true
		}
	}
	return RobotData{}, false
}
