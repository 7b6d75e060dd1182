package core

// Inbound event kinds.
const (
	EventJoinRoom       = "join_room"
	EventLeaveRoom      = "leave_room"
	EventOffer          = "offer"
	EventAnswer         = "answer"
	EventICECandidate   = "ice_candidate"
	EventStartRecording = "start_recording"
	EventStopRecording  = "stop_recording"
)

// Outbound message types.
const (
	MsgRoomJoined       = "room_joined"
	MsgUserJoined       = "user_joined"
	MsgUserLeft         = "user_left"
	MsgRoomLeft         = "room_left"
	MsgRecordingStarted = "recording_started"
	MsgRecordingStopped = "recording_stopped"
	MsgRecordingStatus  = "recording_status"
	MsgError            = "error"
)

// Inbound is one decoded client event. Fields not used by a kind stay zero.
// SDP and Candidate are relayed as sent, string or object.
type Inbound struct {
	Type      string `json:"type" msgpack:"type"`
	RoomID    string `json:"room_id,omitempty" msgpack:"room_id,omitempty"`
	MaxUsers  int    `json:"max_users,omitempty" msgpack:"max_users,omitempty"`
	TargetID  string `json:"target_id,omitempty" msgpack:"target_id,omitempty"`
	SDP       any    `json:"sdp,omitempty" msgpack:"sdp,omitempty"`
	Candidate any    `json:"candidate,omitempty" msgpack:"candidate,omitempty"`
}
