package domain

type ConnStatus string

const (
	ConnIdle         ConnStatus = "idle"
	ConnConnecting   ConnStatus = "connecting"
	ConnConnected    ConnStatus = "connected"
	ConnReconnecting ConnStatus = "reconnecting"
	ConnDisconnected ConnStatus = "disconnected"
)

// ConnState is the realtime channel status. Attempt counts reconnect tries
// since the last successful connect.
type ConnState struct {
	Status  ConnStatus
	Attempt int
	Err     error
}

func (s ConnState) Live() bool {
	return s.Status == ConnConnected
}

// Degraded reports that the channel gave up reconnecting and only polling is
// keeping the view current.
func (s ConnState) Degraded() bool {
	return s.Status == ConnDisconnected && s.Err != nil
}

func (s ConnState) String() string {
	if s.Status == "" {
		return string(ConnIdle)
	}
	return string(s.Status)
}
