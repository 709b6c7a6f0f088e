package middleware

import "expvar"

// AuthOutcomes counts authentication results by outcome; served at /api/debug/vars.
var AuthOutcomes = expvar.NewMap("auth_outcomes")

// Outcome keys of AuthOutcomes.
const (
	OutcomeLoginOK        = "login_ok"
	OutcomeLoginRejected  = "login_rejected"
	OutcomeRegistered     = "registered"
	OutcomeFederatedOK    = "federated_ok"
	OutcomeFederatedError = "federated_error"
	OutcomeUnauthorized   = "unauthorized"
	OutcomeForbidden      = "forbidden"
	OutcomeGateError      = "gate_error"
	OutcomeRateLimited    = "rate_limited"
)

func CountAuth(outcome string) { AuthOutcomes.Add(outcome, 1) }
