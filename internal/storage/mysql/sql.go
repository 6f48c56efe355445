package mysql

const insertSessionSQL = `
INSERT INTO payment_sessions
  (reservation_id, handoff_token, user_id, hotel_id, room_id, check_in, check_out, total_price)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  handoff_token = VALUES(handoff_token),
  total_price   = VALUES(total_price)
`

// One row per (stage, ref, status); repeats bump the counter.
const insertFailureSQL = `
INSERT INTO upstream_failures (stage, ref, http_status, reason)
VALUES (?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  reason  = VALUES(reason),
  hits    = hits + 1,
  seen_at = CURRENT_TIMESTAMP
`

const getSessionSQL = `
SELECT reservation_id, handoff_token, user_id, hotel_id, room_id,
       DATE_FORMAT(check_in, '%Y-%m-%d'), DATE_FORMAT(check_out, '%Y-%m-%d'), total_price
FROM payment_sessions
WHERE reservation_id = ?
`

const countFailuresSQL = `
SELECT COALESCE(SUM(hits), 0) FROM upstream_failures WHERE stage = ? AND ref = ?
`
