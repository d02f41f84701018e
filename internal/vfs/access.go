package vfs

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	"ecorpus-go/internal/database"
	"ecorpus-go/internal/database/sqlc"
)

// AccessLevel is an ordered permission grade. Levels compare with < and >.
type AccessLevel int

const (
	AccessNull AccessLevel = iota
	AccessNone
	AccessRead
	AccessWrite
	AccessAdmin
)

var accessLevelNames = [...]string{
	AccessNull:  "null",
	AccessNone:  "none",
	AccessRead:  "read",
	AccessWrite: "write",
	AccessAdmin: "admin",
}

// ParseAccessLevel parses a role name. The empty string and "null" both
// parse to AccessNull.
func ParseAccessLevel(s string) (AccessLevel, error) {
	if s == "" {
		return AccessNull, nil
	}
	for l, name := range accessLevelNames {
		if name == s {
			return AccessLevel(l), nil
		}
	}
	return AccessNull, ErrBadRequest.New("invalid access level %q", s)
}

func (l AccessLevel) String() string {
	if l < AccessNull || l > AccessAdmin {
		return "AccessLevel(" + strconv.Itoa(int(l)) + ")"
	}
	return accessLevelNames[l]
}

func (l AccessLevel) MarshalText() ([]byte, error) {
	if l < AccessNull || l > AccessAdmin {
		return nil, fmt.Errorf("invalid access level %d", int(l))
	}
	return []byte(accessLevelNames[l]), nil
}

func (l *AccessLevel) UnmarshalText(b []byte) error {
	parsed, err := ParseAccessLevel(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Principal is a key of a scene's access map: one of the two synthetic
// principals or a user id.
type Principal int64

const (
	// PrincipalDefault applies to anonymous requesters and is the last fallback.
	PrincipalDefault Principal = 0
	// PrincipalAny applies to every authenticated user without an explicit grant.
	PrincipalAny Principal = 1
)

// UserPrincipal is the principal of a concrete account.
func UserPrincipal(uid int64) Principal {
	return Principal(uid)
}

func (p Principal) String() string {
	switch p {
	case PrincipalDefault:
		return "default"
	case PrincipalAny:
		return "any"
	default:
		return "user:" + strconv.FormatInt(int64(p), 10)
	}
}

// AccessMap is the sparse per-scene permission table. It is stored as a JSON
// object keyed by decimal uid.
type AccessMap map[Principal]AccessLevel

// DefaultAccess returns the access map of a new scene.
func DefaultAccess(public bool) AccessMap {
	anonymous := AccessNone
	if public {
		anonymous = AccessRead
	}
	return AccessMap{
		PrincipalDefault: anonymous,
		PrincipalAny:     AccessRead,
	}
}

// Resolve returns the level of uid: its explicit grant, else the "any" grant
// for authenticated users, else the default grant.
func (m AccessMap) Resolve(uid int64) AccessLevel {
	if l, ok := m[UserPrincipal(uid)]; ok && l != AccessNull {
		return l
	}
	if uid != 0 {
		if l, ok := m[PrincipalAny]; ok && l != AccessNull {
			return l
		}
	}
	if l, ok := m[PrincipalDefault]; ok && l != AccessNull {
		return l
	}
	return AccessNone
}

func (m AccessMap) MarshalJSON() ([]byte, error) {
	out := make(map[string]AccessLevel, len(m))
	for p, l := range m {
		if l == AccessNull {
			continue
		}
		out[strconv.FormatInt(int64(p), 10)] = l
	}
	return json.Marshal(out)
}

func (m *AccessMap) UnmarshalJSON(b []byte) error {
	var raw map[string]*AccessLevel
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(AccessMap, len(raw))
	for k, l := range raw {
		uid, err := strconv.ParseInt(k, 10, 64)
		if err != nil || uid < 0 {
			return fmt.Errorf("invalid access map key %q", k)
		}
		if l == nil || *l == AccessNull {
			continue
		}
		out[Principal(uid)] = *l
	}
	*m = out
	return nil
}

func parseAccess(raw string) (AccessMap, error) {
	var m AccessMap
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("decoding access map: %w", err)
	}
	return m, nil
}

func encodeAccess(m AccessMap) (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encoding access map: %w", err)
	}
	return string(b), nil
}

// Permission is one explicit entry of a scene's access map.
type Permission struct {
	UID      int64
	Username string
	Level    AccessLevel
}

// principalForUsername maps the synthetic names and account names to a key.
func principalForUsername(ctx context.Context, q *sqlc.Queries, username string) (Principal, error) {
	switch username {
	case "":
		return 0, ErrBadRequest.New("username is required")
	case "default":
		return PrincipalDefault, nil
	case "any":
		return PrincipalAny, nil
	}
	u, err := q.GetUserByName(ctx, username)
	if err != nil {
		if database.IsNotFound(err) {
			return 0, ErrNotFound.New("user %q", username)
		}
		return 0, fmt.Errorf("getting user %q: %w", username, err)
	}
	return UserPrincipal(u.UserID), nil
}

// Grant sets the role of username on scene. Role "null" (or "") removes the
// explicit entry so the user falls back to the default resolution.
func (v *VFS) Grant(ctx context.Context, scene, username, role string) error {
	level, err := ParseAccessLevel(role)
	if err != nil {
		return err
	}

	return v.db.BeginTransaction(ctx, func(ctx context.Context, tx *database.Tx) error {
		q := tx.Queries()
		row, err := lookupScene(ctx, q, scene)
		if err != nil {
			return err
		}
		p, err := principalForUsername(ctx, q, username)
		if err != nil {
			return err
		}
		access, err := parseAccess(row.Access)
		if err != nil {
			return err
		}

		if level == AccessNull {
			delete(access, p)
		} else {
			access[p] = level
		}

		encoded, err := encodeAccess(access)
		if err != nil {
			return err
		}
		if _, err := q.UpdateSceneAccess(ctx, sqlc.UpdateSceneAccessParams{Access: encoded, SceneID: row.SceneID}); err != nil {
			return fmt.Errorf("updating access of scene %q: %w", scene, err)
		}

		v.logger.Info("access granted", "scene", scene, "user", username, "level", level.String())
		return nil
	})
}

// GetAccess resolves the level of uid on scene. Administrator status is not
// considered here; see Authorize.
func (v *VFS) GetAccess(ctx context.Context, scene string, uid int64) (AccessLevel, error) {
	row, err := lookupScene(ctx, v.db.Queries(), scene)
	if err != nil {
		return AccessNull, err
	}
	access, err := parseAccess(row.Access)
	if err != nil {
		return AccessNull, err
	}
	return access.Resolve(uid), nil
}

// GetPermissions lists the explicit entries of scene's access map ordered by
// uid. uid 0 is reported as "default" and uid 1 as "any". Grants held by
// removed accounts are skipped.
func (v *VFS) GetPermissions(ctx context.Context, scene string) ([]Permission, error) {
	var perms []Permission
	err := v.view(ctx, func(ctx context.Context, q *sqlc.Queries) error {
		row, err := lookupScene(ctx, q, scene)
		if err != nil {
			return err
		}
		access, err := parseAccess(row.Access)
		if err != nil {
			return err
		}

		for p, level := range access {
			perm := Permission{UID: int64(p), Level: level}
			switch p {
			case PrincipalDefault:
				perm.Username = "default"
			case PrincipalAny:
				perm.Username = "any"
			default:
				u, err := q.GetUserByID(ctx, int64(p))
				if database.IsNotFound(err) {
					v.logger.Debug("skipping grant of unknown user", "scene", scene, "uid", int64(p))
					continue
				}
				if err != nil {
					return fmt.Errorf("getting user %d: %w", int64(p), err)
				}
				perm.Username = u.Username
			}
			perms = append(perms, perm)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(perms, func(a, b Permission) int { return cmp.Compare(a.UID, b.UID) })
	return perms, nil
}

// Authorize is the request gate: it passes when user is an administrator or
// holds at least level on scene. A nil user is anonymous. Failures are
// ErrUnauthorized for anonymous requesters and ErrForbidden otherwise.
func (v *VFS) Authorize(ctx context.Context, scene string, user *User, level AccessLevel) error {
	if user != nil && user.IsAdministrator {
		return nil
	}
	var uid int64
	if user != nil {
		uid = user.ID
	}

	got, err := v.GetAccess(ctx, scene, uid)
	if err != nil {
		return err
	}
	if level <= got {
		return nil
	}
	if uid == 0 {
		return ErrUnauthorized.New("%s access to scene %q requires authentication", level, scene)
	}
	return ErrForbidden.New("user %d has %s access to scene %q, %s required", uid, got, scene, level)
}
