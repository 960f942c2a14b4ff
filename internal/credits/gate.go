// Package credits is the pre-flight admission gate: one atomic stored
// procedure call that checks the balance for the requested resolution and
// debits it in the same transaction.
package credits

import (
	"context"

	"github.com/rs/zerolog"

	"posterlab/internal/domain"
	"posterlab/internal/infra"
	"posterlab/internal/sqlinline"
)

// Admission is the gate's verdict for one request.
type Admission struct {
	Granted   bool
	Remaining int
	Needed    int
	Reason    string
	// Watermark is true for free-tier renders that must carry a watermark.
	Watermark bool
}

// Gate decides whether a generation request may run.
type Gate struct {
	sql    infra.SQLExecutor
	logger zerolog.Logger
}

func NewGate(sql infra.SQLExecutor, logger zerolog.Logger) *Gate {
	return &Gate{sql: sql, logger: logger}
}

// Admit debits the cost of one render at the given resolution. A denial is
// returned as Admission with Granted=false, not as an error; errors mean the
// gate itself could not run.
func (g *Gate) Admit(ctx context.Context, userID string, res domain.Resolution) (Admission, error) {
	if userID == "" {
		return Admission{}, domain.NewError(domain.KindAuthenticationRequired, "credits: missing user id")
	}

	var adm Admission
	row := g.sql.QueryRow(ctx, sqlinline.QCheckAndDebitCredits, userID, string(res))
	if err := row.Scan(&adm.Granted, &adm.Remaining, &adm.Needed, &adm.Reason, &adm.Watermark); err != nil {
		return Admission{}, domain.WrapError(domain.KindInternal, err, "credits: check_and_debit_credits")
	}

	if !adm.Granted {
		g.logger.Info().
			Str("user_id", userID).
			Str("resolution", string(res)).
			Int("remaining", adm.Remaining).
			Int("needed", adm.Needed).
			Str("reason", adm.Reason).
			Msg("generation denied by credit gate")
	}
	return adm, nil
}
