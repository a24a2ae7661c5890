package signal

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/WatchTogether/internal/domain"
)

// relayPayload carries an offer, answer or ICE candidate for one peer.
// The payload itself is never inspected.
type relayPayload struct {
	TargetUserID domain.UserID   `json:"targetUserId"`
	Payload      json.RawMessage `json:"payload"`
}

type chatPayload struct {
	Content string `json:"content"`
	Type    string `json:"type"`
}

func (ctl *SignalWSController) handleRelay(ctx context.Context, sid domain.UserID, env Envelope) {
	var p relayPayload
	if err := decode(env, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("event", env.Event).Msg("bad relay payload")
		return
	}

	var err error
	switch env.Event {
	case EventSignalOffer:
		err = ctl.Coord.SignalOffer(ctx, sid, p.TargetUserID, p.Payload)
	case EventSignalAnswer:
		err = ctl.Coord.SignalAnswer(ctx, sid, p.TargetUserID, p.Payload)
	case EventSignalICE:
		err = ctl.Coord.SignalICE(ctx, sid, p.TargetUserID, p.Payload)
	}
	ctl.forward(err, sid, env)
}

func (ctl *SignalWSController) handleSendChat(ctx context.Context, sid domain.UserID, env Envelope) {
	var p chatPayload
	if err := decode(env, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad chat payload")
		return
	}
	ctl.forward(ctl.Coord.SendChat(ctx, sid, p.Content, p.Type), sid, env)
}
