package db

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// FirestoreConfig selects the Firebase project and its credentials. When
// neither CredentialsFile nor CredentialsJSONBase64 is set, Application
// Default Credentials are used.
type FirestoreConfig struct {
	ProjectID             string
	CredentialsFile       string
	CredentialsJSONBase64 string
}

// InitFirestore initializes the Firebase Admin SDK and returns a Firestore
// client. The caller owns the client and must Close it.
func InitFirestore(ctx context.Context, cfg FirestoreConfig, log *zap.Logger) (*firestore.Client, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("firestore")

	var opts []option.ClientOption
	switch {
	case cfg.CredentialsFile != "":
		log.Info("Initializing Firebase with credentials file", zap.String("path", cfg.CredentialsFile))
		if _, err := os.Stat(cfg.CredentialsFile); errors.Is(err, os.ErrNotExist) {
			// The SDK may still find ADC, so this is only a warning.
			log.Warn("Credentials file does not exist", zap.String("path", cfg.CredentialsFile))
		}
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	case cfg.CredentialsJSONBase64 != "":
		log.Info("Initializing Firebase with Base64 encoded service account JSON")
		decoded, err := base64.StdEncoding.DecodeString(cfg.CredentialsJSONBase64)
		if err != nil {
			return nil, fmt.Errorf("failed to decode service account JSON: %w", err)
		}
		opts = append(opts, option.WithCredentialsJSON(decoded))
	default:
		log.Info("Initializing Firebase using Application Default Credentials")
	}

	var appConfig *firebase.Config
	if cfg.ProjectID != "" {
		appConfig = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, appConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase.NewApp: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("app.Firestore: %w", err)
	}
	log.Info("Firestore client initialized", zap.String("project_id", cfg.ProjectID))
	return client, nil
}

// NewFirestoreRepositories returns repositories backed by Firestore
// collections named after the Supabase tables.
func NewFirestoreRepositories(client *firestore.Client, log *zap.Logger) (*Repositories, error) {
	if client == nil {
		return nil, errors.New("firestore client is not initialized")
	}
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("firestore")
	return &Repositories{
		Profiles: &firestoreProfileRepository{client: client},
		Projects: &firestoreProjectRepository{client: client, log: log},
		Chats:    &firestoreChatRepository{client: client, log: log},
		Files:    &firestoreFileRepository{client: client, log: log},
	}, nil
}
