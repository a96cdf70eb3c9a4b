// README: Firebase Admin SDK initialisation (lazy, process-wide) and token verifier.
package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/config"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// FirebaseToken holds the verified token data used by downstream middleware.
type FirebaseToken struct {
	UID    string
	Email  string
	Claims map[string]interface{}
}

// TokenVerifier verifies a raw Firebase ID token string and returns token data.
// Implementations return ErrTokenExpired or ErrTokenInvalid for rejected
// tokens; any other error means the verifier itself failed.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*FirebaseToken, error)
}

// FirebaseApp initialises the Admin SDK on first use and shares the
// auth and Firestore clients across requests.
type FirebaseApp struct {
	cfg config.FirebaseConfig

	appOnce sync.Once
	app     *firebase.App
	appErr  error

	authOnce sync.Once
	auth     *auth.Client
	authErr  error

	fsOnce sync.Once
	fs     *firestore.Client
	fsErr  error
}

func NewFirebaseApp(cfg config.FirebaseConfig) *FirebaseApp {
	return &FirebaseApp{cfg: cfg}
}

// clientOptions prefers inline service-account fields, then a credentials
// file, then application-default credentials.
func (f *FirebaseApp) clientOptions() ([]option.ClientOption, error) {
	if f.cfg.ClientEmail != "" && f.cfg.PrivateKey != "" {
		creds, err := json.Marshal(map[string]string{
			"type":         "service_account",
			"project_id":   f.cfg.ProjectID,
			"client_email": f.cfg.ClientEmail,
			"private_key":  f.cfg.PrivateKey,
			"token_uri":    "https://oauth2.googleapis.com/token",
		})
		if err != nil {
			return nil, err
		}
		return []option.ClientOption{option.WithCredentialsJSON(creds)}, nil
	}
	if f.cfg.CredentialsFile != "" {
		return []option.ClientOption{option.WithCredentialsFile(f.cfg.CredentialsFile)}, nil
	}
	return nil, nil
}

// newApp is swapped in tests.
var newApp = firebase.NewApp

// App initialises the SDK once. Initialisation is detached from ctx
// cancellation because its result is cached for the life of the process.
func (f *FirebaseApp) App(ctx context.Context) (*firebase.App, error) {
	ctx = context.WithoutCancel(ctx)
	f.appOnce.Do(func() {
		opts, err := f.clientOptions()
		if err != nil {
			f.appErr = fmt.Errorf("firebase credentials: %w", err)
			return
		}
		app, err := newApp(ctx, &firebase.Config{ProjectID: f.cfg.ProjectID}, opts...)
		if err != nil {
			f.appErr = fmt.Errorf("firebase.NewApp: %w", err)
			return
		}
		f.app = app
	})
	return f.app, f.appErr
}

func (f *FirebaseApp) Auth(ctx context.Context) (*auth.Client, error) {
	ctx = context.WithoutCancel(ctx)
	f.authOnce.Do(func() {
		app, err := f.App(ctx)
		if err != nil {
			f.authErr = err
			return
		}
		f.auth, f.authErr = app.Auth(ctx)
		if f.authErr != nil {
			f.authErr = fmt.Errorf("firebase app.Auth: %w", f.authErr)
		}
	})
	return f.auth, f.authErr
}

func (f *FirebaseApp) Firestore(ctx context.Context) (*firestore.Client, error) {
	ctx = context.WithoutCancel(ctx)
	f.fsOnce.Do(func() {
		app, err := f.App(ctx)
		if err != nil {
			f.fsErr = err
			return
		}
		f.fs, f.fsErr = app.Firestore(ctx)
		if f.fsErr != nil {
			f.fsErr = fmt.Errorf("firebase app.Firestore: %w", f.fsErr)
		}
	})
	return f.fs, f.fsErr
}

// Close releases the Firestore client if it was created.
func (f *FirebaseApp) Close() error {
	if f.fs != nil {
		return f.fs.Close()
	}
	return nil
}

// firebaseVerifier is the production implementation backed by the Firebase Admin SDK.
type firebaseVerifier struct {
	app *FirebaseApp
}

// NewFirebaseVerifier creates a TokenVerifier whose auth client is created on first use.
func NewFirebaseVerifier(app *FirebaseApp) TokenVerifier {
	return &firebaseVerifier{app: app}
}

func (v *firebaseVerifier) VerifyIDToken(ctx context.Context, idToken string) (*FirebaseToken, error) {
	client, err := v.app.Auth(ctx)
	if err != nil {
		return nil, err
	}
	token, err := client.VerifyIDToken(ctx, idToken)
	switch {
	case err == nil:
	case auth.IsIDTokenExpired(err):
		return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
	case auth.IsIDTokenInvalid(err):
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	default:
		return nil, err
	}
	email, _ := token.Claims["email"].(string)
	return &FirebaseToken{UID: token.UID, Email: email, Claims: token.Claims}, nil
}
