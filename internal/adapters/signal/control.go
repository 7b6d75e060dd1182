package signal

import "github.com/dkeye/VideoRoom/internal/core"

// handlePing answers the app-level keepalive some browsers send instead of ws pings.
func (ctl *SignalWSController) handlePing(conn *WsSignalConn) {
	_ = conn.TrySend(core.Message{"type": "pong"})
}
