package sqlinline

// QCheckAndDebitCredits performs the atomic pre-flight debit. The stored
// procedure checks the user's balance against the cost of the requested
// resolution, debits when sufficient, and reports the outcome in one
// transaction so concurrent requests from the same user cannot double-spend.
const QCheckAndDebitCredits = `--sql 3f7c1a2e-9b40-4d6a-8c11-5e2f84a0d9b3
select granted, remaining, needed, reason, watermark
from check_and_debit_credits($1::uuid, $2::text);
`
