package file

const (
	fileColumns = `id, file_name, original_name, storage_key, mime_type, size_bytes,
		uploaded_by, recipient_user_name, sender_name, description, tags, is_public, download_count,
		created_at, expires_at`

	InsertFile = `
		INSERT INTO files (` + fileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 0, $13, $14)
		RETURNING ` + fileColumns
	SelectFileByID = `
		SELECT ` + fileColumns + `
		FROM files
		WHERE id = $1
	`
	CountFilesByRecipient = `SELECT count(*) FROM files WHERE recipient_user_name = $1`
	SelectFilesByRecipient = `
		SELECT ` + fileColumns + `
		FROM files
		WHERE recipient_user_name = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	SelectLatestByUploaderSince = `
		SELECT ` + fileColumns + `
		FROM files
		WHERE uploaded_by = $1 AND created_at >= $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	SelectExpiredOrOverdue = `
		SELECT ` + fileColumns + `
		FROM files
		WHERE expires_at <= $1 OR created_at <= $2
		ORDER BY created_at ASC
	`
	UpdateFileFields = `
		UPDATE files
		SET sender_name = COALESCE($2, sender_name),
		    description = COALESCE($3, description),
		    tags = COALESCE($4::text[], tags),
		    is_public = COALESCE($5, is_public)
		WHERE id = $1
		RETURNING ` + fileColumns
	DeleteFileByID         = `DELETE FROM files WHERE id = $1`
	IncrementDownloadCount = `UPDATE files SET download_count = download_count + 1 WHERE id = $1`
	SelectStats            = `
		SELECT count(*),
		       COALESCE(sum(size_bytes), 0)::bigint,
		       count(*) FILTER (WHERE expires_at <= $1 OR created_at <= $2),
		       COALESCE(sum(size_bytes) FILTER (WHERE expires_at <= $1 OR created_at <= $2), 0)::bigint
		FROM files
	`
	SelectKnownStorageKeys = `SELECT storage_key FROM files WHERE storage_key = ANY($1)`
)
