package signal

import (
	"context"

	"github.com/dkeye/WatchTogether/internal/domain"
)

func (ctl *SignalWSController) handleClearState(ctx context.Context, sid domain.UserID, conn *WsSignalConn, env Envelope) {
	if err := ctl.Coord.ClearState(ctx, sid); err != nil {
		ctl.fail(conn, env, errorCode(err))
		return
	}
	ctl.reply(conn, env, ackOK{Success: true})
}
