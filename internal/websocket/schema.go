package websocket

// Action is a client → server message kind on the monitor stream.
type Action string

const (
	ActionPing    Action = "ping"
	ActionRefresh Action = "refresh"
)

// RequestPayload is the client → server message on the monitor stream.
type RequestPayload struct {
	Action Action `json:"action"`
}

// Event is a server → client message kind.
type Event string

const (
	EventSnapshot Event = "snapshot"
	EventPong     Event = "pong"
	EventError    Event = "error"
)

// SnapshotResponse pushes a monitoring snapshot to the admin client.
type SnapshotResponse struct {
	Event Event       `json:"event"`
	Data  interface{} `json:"data"`
}

// PongResponse answers a ping.
type PongResponse struct {
	Event Event `json:"event"`
}

// ErrorResponse reports a stream-level error to the client.
type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}
