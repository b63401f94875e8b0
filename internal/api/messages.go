package api

// ClientMessage is the tagged union of every inbound frame, keyed on
// Type. Each variant uses a subset of the fields; missing fields decode
// to zero values and unknown types are ignored by the dispatcher.
type ClientMessage struct {
	Type string `json:"type"`

	// create / join
	Name     string `json:"name"`
	RoomID   string `json:"room_id"`
	IsPublic bool   `json:"is_public"`

	// input
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// Inbound frame types.
const (
	MsgCreate  = "create"
	MsgJoin    = "join"
	MsgInput   = "input"
	MsgStart   = "start"
	MsgRematch = "rematch"
)

// Join denial messages, matching what the webapp client displays.
const (
	errMsgRoomNotFound = "Комната не найдена"
	errMsgRoomFull     = "Комната заполнена"
	errMsgGameStarted  = "Игра уже началась"
	errMsgMissingCode  = "Укажите код комнаты"
)
