package storage

import "context"

// LogoStorage keeps a copy of customer logos outside the wizard session.
type LogoStorage interface {
	// UploadLogo stores the image under the session and returns its public URL.
	UploadLogo(ctx context.Context, sessionID, fileName string, data []byte) (string, error)
}
