package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// RolesCollection holds one {email, role} document per UID.
const RolesCollection = "users"

const defaultSignInURL = "https://identitytoolkit.googleapis.com/v1/accounts:signInWithPassword"

// NewFirebaseApp initializes a Firebase app from a service-account file.
func NewFirebaseApp(ctx context.Context, credentialsFile, projectID string) (*firebase.App, error) {
	if credentialsFile == "" {
		return nil, fmt.Errorf("firebase credentials path not provided")
	}

	var cfg *firebase.Config
	if projectID != "" {
		cfg = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, cfg, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}
	slog.Info("firebase app initialized", "project", projectID)
	return app, nil
}

// FirebaseAuth creates accounts with the Admin SDK and checks passwords
// against the Identity Toolkit REST API.
type FirebaseAuth struct {
	client     *auth.Client
	apiKey     string
	signInURL  string
	httpClient *http.Client
}

var _ Authenticator = (*FirebaseAuth)(nil)

// FirebaseOption configures a FirebaseAuth.
type FirebaseOption func(*FirebaseAuth)

// WithSignInURL points password checks at another endpoint.
func WithSignInURL(u string) FirebaseOption {
	return func(f *FirebaseAuth) { f.signInURL = u }
}

// NewFirebaseAuth creates a Firebase authenticator. client may be nil when
// only SignIn is used.
func NewFirebaseAuth(client *auth.Client, apiKey string, opts ...FirebaseOption) *FirebaseAuth {
	f := &FirebaseAuth{
		client:     client,
		apiKey:     apiKey,
		signInURL:  defaultSignInURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// SignUp creates a Firebase user.
func (f *FirebaseAuth) SignUp(ctx context.Context, email, password string) (Credential, error) {
	email = normalizeEmail(email)
	if err := checkSignUp(email, password); err != nil {
		return Credential{}, err
	}

	u, err := f.client.CreateUser(ctx, (&auth.UserToCreate{}).Email(email).Password(password))
	if err != nil {
		if auth.IsEmailAlreadyExists(err) {
			return Credential{}, &RegistrationError{Code: CodeEmailInUse, Err: err}
		}
		return Credential{}, &RegistrationError{Code: CodeInternal, Err: fmt.Errorf("creating firebase user: %w", err)}
	}
	return credentialFromRecord(u), nil
}

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInResponse struct {
	LocalID     string `json:"localId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Picture     string `json:"profilePicture"`
	Error       *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// SignIn verifies a password through the Identity Toolkit.
func (f *FirebaseAuth) SignIn(ctx context.Context, email, password string) (Credential, error) {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return Credential{}, &AuthError{Code: CodeInvalidEmail}
	}

	body, err := json.Marshal(signInRequest{Email: email, Password: password, ReturnSecureToken: true})
	if err != nil {
		return Credential{}, &AuthError{Code: CodeInternal, Err: fmt.Errorf("marshaling request: %w", err)}
	}

	endpoint := f.signInURL + "?key=" + url.QueryEscape(f.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Credential{}, &AuthError{Code: CodeInternal, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return Credential{}, &AuthError{Code: CodeInternal, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Warn("closing response body", "error", cerr)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Credential{}, &AuthError{Code: CodeInternal, Err: fmt.Errorf("reading response: %w", err)}
	}

	var out signInResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return Credential{}, &AuthError{Code: CodeInternal, Err: fmt.Errorf("decoding response: %w", err)}
	}
	if resp.StatusCode >= 400 || out.Error != nil {
		msg := http.StatusText(resp.StatusCode)
		if out.Error != nil {
			msg = out.Error.Message
		}
		return Credential{}, &AuthError{Code: signInCode(msg), Err: errors.New(msg)}
	}

	return Credential{UID: out.LocalID, Email: out.Email, DisplayName: out.DisplayName, PhotoURL: out.Picture}, nil
}

// signInCode maps an Identity Toolkit error message to a reason code.
// Messages look like "EMAIL_NOT_FOUND" or "TOO_MANY_ATTEMPTS_TRY_LATER : ...".
func signInCode(msg string) string {
	key := strings.TrimSpace(strings.SplitN(msg, ":", 2)[0])
	switch key {
	case "EMAIL_NOT_FOUND":
		return CodeUserNotFound
	case "INVALID_PASSWORD":
		return CodeWrongPassword
	case "INVALID_EMAIL":
		return CodeInvalidEmail
	default:
		return CodeInvalidCredential
	}
}

// Lookup fetches a Firebase user by UID.
func (f *FirebaseAuth) Lookup(ctx context.Context, uid string) (Credential, error) {
	u, err := f.client.GetUser(ctx, uid)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return Credential{}, fmt.Errorf("user %s: %w", uid, ErrUnknownUser)
		}
		return Credential{}, fmt.Errorf("getting firebase user %s: %w", uid, err)
	}
	return credentialFromRecord(u), nil
}

func credentialFromRecord(u *auth.UserRecord) Credential {
	cred := Credential{UID: u.UID, Email: u.Email, DisplayName: u.DisplayName, PhotoURL: u.PhotoURL}
	if u.UserMetadata != nil && u.UserMetadata.CreationTimestamp > 0 {
		cred.CreatedAt = time.UnixMilli(u.UserMetadata.CreationTimestamp).UTC()
	}
	return cred
}

// FirestoreRoles keeps role records in the Firestore users collection.
type FirestoreRoles struct {
	client *firestore.Client
}

var _ RoleStore = (*FirestoreRoles)(nil)

// NewFirestoreRoles creates a Firestore role store.
func NewFirestoreRoles(client *firestore.Client) *FirestoreRoles {
	return &FirestoreRoles{client: client}
}

// PutRole stores the role record for uid.
func (s *FirestoreRoles) PutRole(ctx context.Context, uid string, rec RoleRecord) error {
	if !rec.Role.Valid() {
		return fmt.Errorf("invalid role %q", rec.Role)
	}
	if _, err := s.client.Collection(RolesCollection).Doc(uid).Set(ctx, rec); err != nil {
		return fmt.Errorf("storing role: %w", err)
	}
	return nil
}

// Role returns the role record for uid.
func (s *FirestoreRoles) Role(ctx context.Context, uid string) (RoleRecord, error) {
	snap, err := s.client.Collection(RolesCollection).Doc(uid).Get(ctx)
	if snap != nil && !snap.Exists() {
		return RoleRecord{}, ErrNoRole
	}
	if err != nil {
		return RoleRecord{}, fmt.Errorf("getting role: %w", err)
	}

	var rec RoleRecord
	if err := snap.DataTo(&rec); err != nil {
		return RoleRecord{}, fmt.Errorf("decoding role: %w", err)
	}
	return rec, nil
}
