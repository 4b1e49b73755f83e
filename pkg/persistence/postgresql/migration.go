package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE posts (
				id UUID PRIMARY KEY,
				user_id VARCHAR(255) NOT NULL,
				platform VARCHAR(50) NOT NULL,
				content TEXT NOT NULL,
				niche VARCHAR(255) NOT NULL DEFAULT '',
				post_id VARCHAR(255) NOT NULL DEFAULT '',
				image_asset_urn VARCHAR(255) NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_posts_user_id ON posts(user_id);
			CREATE INDEX idx_posts_user_platform ON posts(user_id, platform);
			CREATE INDEX idx_posts_created_at ON posts(created_at);

			CREATE TABLE user_credentials (
				user_id VARCHAR(255) PRIMARY KEY,
				access_token TEXT NOT NULL,
				person_urn VARCHAR(255) NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE TABLE job_summaries (
				user_id VARCHAR(255) PRIMARY KEY,
				total_completed BIGINT NOT NULL DEFAULT 0,
				total_failed BIGINT NOT NULL DEFAULT 0,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);
		`,
		2: `
			CREATE TABLE workflow_runs (
				id VARCHAR(255) PRIMARY KEY,
				user_id VARCHAR(255) NOT NULL,
				niche VARCHAR(255) NOT NULL,
				status VARCHAR(50) NOT NULL CHECK (status IN ('running', 'completed', 'failed')),
				topic TEXT NOT NULL DEFAULT '',
				final_post TEXT NOT NULL DEFAULT '',
				iteration_count INT NOT NULL DEFAULT 0,
				image_asset_urn VARCHAR(255) NOT NULL DEFAULT '',
				outcome TEXT NOT NULL DEFAULT '',
				steps JSONB NOT NULL DEFAULT '[]',
				error TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				completed_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_workflow_runs_user_created ON workflow_runs(user_id, created_at DESC);
		`,
	}
}
