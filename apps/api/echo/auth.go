package echoapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/erise-club/website/core"
	"github.com/erise-club/website/core/admin"
)

const (
	authScheme = "Bearer"

	contextClaimsKey  = "claims"
	contextSessionKey = "session"
	contextAdminKey   = "admin"
)

var signingMethod = jwt.SigningMethodHS256

// Claims represents the authorization claims transmitted via a JWT.
// The JWT ID is the admin session it was issued for.
type Claims struct {
	jwt.StandardClaims
	Username string `json:"username,omitempty"`
}

func newClaims(issuer string, adm admin.Admin, sess admin.Session) *Claims {
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        sess.ID,
			Issuer:    issuer,
			Subject:   strconv.FormatInt(adm.ID, 10),
			IssuedAt:  sess.CreatedAt.Unix(),
			ExpiresAt: sess.ExpiresAt.Unix(),
		},
		Username: adm.Username,
	}
}

// GenerateToken generates a signed JWT token string representing the admin Claims.
func GenerateToken(secretKey []byte, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(signingMethod, claims)

	ss, err := token.SignedString(secretKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func parseToken(secretKey []byte, tokenString string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != signingMethod.Alg() {
			return nil, errors.Errorf("unexpected jwt signing method %q", t.Method.Alg())
		}
		return secretKey, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Id == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// authMiddleware lets through requests bearing a valid token of an active session.
// Every other request is rejected with errUnauthorized before reaching the handler.
func authMiddleware(svc *admin.Service, secretKey []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			auth := ctx.Request().Header.Get(echo.HeaderAuthorization)
			scheme, tokenString, found := strings.Cut(auth, " ")
			if !found || scheme != authScheme || tokenString == "" {
				return errUnauthorized
			}

			claims, err := parseToken(secretKey, tokenString)
			if err != nil {
				return errUnauthorized
			}

			sess, err := svc.VerifySession(ctx.Request().Context(), claims.Id)
			if err != nil {
				if errors.Cause(err) == admin.ErrSessionInvalid {
					return errUnauthorized
				}
				return errors.Wrap(err, "verifying session")
			}
			if strconv.FormatInt(sess.AdminID, 10) != claims.Subject {
				return errUnauthorized
			}

			ctx.Set(contextClaimsKey, *claims)
			ctx.Set(contextSessionKey, sess)
			return next(ctx)
		}
	}
}

func getContextSession(ctx echo.Context) (admin.Session, error) {
	if sess, ok := ctx.Get(contextSessionKey).(admin.Session); ok {
		return sess, nil
	}
	return admin.Session{}, errUnauthorized
}

func getContextAdmin(ctx echo.Context, svc *admin.Service) (admin.Admin, error) {
	if adm, ok := ctx.Get(contextAdminKey).(admin.Admin); ok {
		return adm, nil
	}

	sess, err := getContextSession(ctx)
	if err != nil {
		return admin.Admin{}, err
	}
	adm, err := svc.GetByID(ctx.Request().Context(), sess.AdminID)
	if err != nil {
		return admin.Admin{}, errors.Wrap(err, "finding admin by ID")
	}
	ctx.Set(contextAdminKey, adm)
	return adm, nil
}

type authApi struct {
	svc       *admin.Service
	secretKey []byte
	issuer    string
}

func registerAuthAPI(g *echo.Group, auth echo.MiddlewareFunc, svc *admin.Service, conf *core.Config) {
	api := authApi{
		svc:       svc,
		secretKey: []byte(conf.SecretKey),
		issuer:    conf.AppName,
	}

	// un-authed endpoints
	g.POST("/login", api.login)

	// authed endpoints
	g.POST("/logout", api.logout, auth)
	g.POST("/token-refresh", api.refreshToken, auth)
}

// Handlers

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		// a credential that is not a string can only be a wrong one
		if isTypeError(err) {
			return errInvalidPassword
		}
		return errors.Wrap(err, "binding to LoginRequest")
	}

	adm, err := api.svc.Authenticate(ctx.Request().Context(), data.Username, data.Password)
	if err != nil {
		if errors.Cause(err) == admin.ErrInvalidCredentials {
			return errInvalidPassword
		}
		return errors.Wrap(err, "authenticating")
	}
	ctx.Set(contextAdminKey, adm)

	sess, err := api.svc.StartSession(ctx.Request().Context(), adm)
	if err != nil {
		return errors.Wrap(err, "starting session")
	}
	return api.respondWithToken(ctx, adm, sess)
}

// isTypeError is true when a well-formed body holds a value of the wrong type.
func isTypeError(err error) bool {
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &typeErr)
}

func (api *authApi) logout(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}
	if err = api.svc.EndSession(ctx.Request().Context(), sess.ID); err != nil {
		return errors.Wrap(err, "ending session")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}
	adm, err := getContextAdmin(ctx, api.svc)
	if err != nil {
		if errors.Cause(err) == admin.ErrNotFound {
			return errUnauthorized
		}
		return errors.Wrap(err, "getting context admin")
	}

	newSess, err := api.svc.RotateSession(ctx.Request().Context(), sess)
	if err != nil {
		if errors.Cause(err) == admin.ErrSessionInvalid {
			return errUnauthorized
		}
		return errors.Wrap(err, "rotating session")
	}
	return api.respondWithToken(ctx, adm, newSess)
}

func (api *authApi) respondWithToken(ctx echo.Context, adm admin.Admin, sess admin.Session) error {
	token, err := GenerateToken(api.secretKey, newClaims(api.issuer, adm, sess))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

type (
	// LoginRequest names no account when Username is empty: the default admin is assumed.
	LoginRequest struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	SuccessResponse struct {
		Success bool `json:"success"`
	}
)
