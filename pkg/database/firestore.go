package database

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/richxcame/delivery-fares/pkg/config"
	"google.golang.org/api/option"
)

// NewFirestoreClient opens the Firestore database of the configured Firebase project.
// Without a credentials path the SDK falls back to application-default credentials.
func NewFirestoreClient(ctx context.Context, cfg *config.FirebaseConfig) (*firestore.Client, error) {
	opts := []option.ClientOption{}
	if cfg.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase.NewApp: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase app.Firestore: %w", err)
	}

	return client, nil
}
