package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'user_role') THEN
			CREATE TYPE user_role AS ENUM ('shipper', 'carrier');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'shipment_status') THEN
			CREATE TYPE shipment_status AS ENUM ('open', 'accepted', 'delivered', 'completed', 'cancelled', 'returned');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'bid_status') THEN
			CREATE TYPE bid_status AS ENUM ('pending', 'accepted', 'rejected');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		email VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		name VARCHAR(255) NOT NULL,
		role user_role NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_users_email ON users (LOWER(email));`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token_hash VARCHAR(128) NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		revoked BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_refresh_tokens_hash ON refresh_tokens (token_hash);`,
	`CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user_id ON refresh_tokens (user_id);`,
	`CREATE TABLE IF NOT EXISTS shipments (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		shipper_id UUID NOT NULL REFERENCES users(id),
		title VARCHAR(255) NOT NULL,
		pickup_address TEXT NOT NULL,
		pickup_city VARCHAR(128) NOT NULL,
		pickup_country VARCHAR(128) NOT NULL DEFAULT '',
		delivery_address TEXT NOT NULL,
		delivery_city VARCHAR(128) NOT NULL,
		delivery_country VARCHAR(128) NOT NULL DEFAULT '',
		cargo_description TEXT NOT NULL DEFAULT '',
		weight_kg NUMERIC(12,3) NOT NULL DEFAULT 0,
		length_cm NUMERIC(10,2) NOT NULL DEFAULT 0,
		width_cm NUMERIC(10,2) NOT NULL DEFAULT 0,
		height_cm NUMERIC(10,2) NOT NULL DEFAULT 0,
		quantity INTEGER NOT NULL DEFAULT 1,
		preferred_pickup_date DATE,
		preferred_delivery_date DATE,
		transport_mode VARCHAR(32) NOT NULL DEFAULT 'road',
		insured BOOLEAN NOT NULL DEFAULT FALSE,
		handling_instructions TEXT NOT NULL DEFAULT '',
		budget NUMERIC(18,2) NOT NULL DEFAULT 0,
		currency VARCHAR(8) NOT NULL DEFAULT 'USD',
		status shipment_status NOT NULL DEFAULT 'open',
		accepted_bid_id UUID,
		delivered_by_logistics BOOLEAN NOT NULL DEFAULT FALSE,
		delivered_at TIMESTAMPTZ,
		rating_score SMALLINT,
		rating_feedback TEXT,
		rated_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_shipments_shipper_id ON shipments (shipper_id);`,
	`CREATE INDEX IF NOT EXISTS idx_shipments_status ON shipments (status);`,
	`CREATE TABLE IF NOT EXISTS shipment_attachments (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		shipment_id UUID NOT NULL REFERENCES shipments(id) ON DELETE CASCADE,
		kind VARCHAR(16) NOT NULL,
		file_name VARCHAR(512) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_shipment_attachments_shipment_id ON shipment_attachments (shipment_id);`,
	`CREATE TABLE IF NOT EXISTS bids (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		shipment_id UUID NOT NULL REFERENCES shipments(id) ON DELETE CASCADE,
		carrier_id UUID NOT NULL REFERENCES users(id),
		price NUMERIC(18,2) NOT NULL,
		currency VARCHAR(8) NOT NULL DEFAULT 'USD',
		eta VARCHAR(255) NOT NULL,
		message TEXT NOT NULL DEFAULT '',
		status bid_status NOT NULL DEFAULT 'pending',
		price_update_requested BOOLEAN NOT NULL DEFAULT FALSE,
		price_update_message TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_bids_shipment_id ON bids (shipment_id);`,
	`CREATE INDEX IF NOT EXISTS idx_bids_carrier_id ON bids (carrier_id);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_bids_active_per_carrier
		ON bids (shipment_id, carrier_id)
		WHERE status IN ('pending', 'accepted');`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
