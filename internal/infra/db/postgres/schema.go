// File: internal/infra/db/postgres/schema.go
package postgres

// Schema is the full DDL for the payment ledger. It is idempotent and
// safe to run against an existing database.
const Schema = `
CREATE TABLE IF NOT EXISTS subscription_plans (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL,
    duration_months INT NOT NULL,
    price_tiyin     BIGINT NOT NULL,
    active          BOOLEAN NOT NULL DEFAULT TRUE,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS payments (
    id              TEXT PRIMARY KEY,
    user_id         TEXT NOT NULL DEFAULT '',
    plan_id         TEXT NOT NULL DEFAULT '',
    provider        TEXT NOT NULL,
    order_id        TEXT NOT NULL,
    external_tx_id  TEXT NOT NULL DEFAULT '',
    prepare_id      BIGINT NOT NULL DEFAULT 0,
    amount          BIGINT NOT NULL,
    currency        TEXT NOT NULL DEFAULT 'UZS',
    duration_months INT NOT NULL DEFAULT 0,
    status          TEXT NOT NULL,
    txn_state       INT NOT NULL DEFAULT 0,
    create_time     TIMESTAMPTZ,
    perform_time    TIMESTAMPTZ,
    cancel_time     TIMESTAMPTZ,
    cancel_reason   INT,
    version         BIGINT NOT NULL DEFAULT 1,
    sub_activated   BOOLEAN NOT NULL DEFAULT FALSE,
    subscription_id TEXT,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT payments_provider_order_key UNIQUE (provider, order_id)
);

CREATE INDEX IF NOT EXISTS payments_external_tx_idx ON payments (provider, external_tx_id);
CREATE INDEX IF NOT EXISTS payments_backlog_idx ON payments (updated_at) WHERE sub_activated = TRUE AND subscription_id IS NULL;

CREATE TABLE IF NOT EXISTS user_subscriptions (
    id         TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL,
    plan_id    TEXT NOT NULL,
    start_at   TIMESTAMPTZ NOT NULL,
    expires_at TIMESTAMPTZ NOT NULL,
    status     TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS user_subscriptions_user_idx ON user_subscriptions (user_id, status);

CREATE TABLE IF NOT EXISTS subscription_activations (
    payment_id      TEXT PRIMARY KEY,
    subscription_id TEXT NOT NULL,
    applied_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
