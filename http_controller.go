package blog

import (
	"regexp"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/google/uuid"
)

var nameCharsRe = regexp.MustCompile(`^[a-zA-Z\s]+$`)

// API exposes the user and post endpoints over fiber. Build it with NewAPI
// and mount it on an app with RegisterRoutes.
type API struct {
	Debug    bool
	Logger   Logger
	Repo     RepositoryManager
	Auther   Authenticator
	Tokens   TokenService
	Provider IdentityProvider
	Config   Config
}

type APIOption func(*API) *API

func WithAPILogger(logger Logger) APIOption {
	return func(a *API) *API {
		if logger != nil {
			a.Logger = logger
		}
		return a
	}
}

func WithRepository(repo RepositoryManager) APIOption {
	return func(a *API) *API {
		a.Repo = repo
		return a
	}
}

func WithAuthenticator(auther Authenticator) APIOption {
	return func(a *API) *API {
		a.Auther = auther
		return a
	}
}

func WithAPITokenService(tokens TokenService) APIOption {
	return func(a *API) *API {
		a.Tokens = tokens
		return a
	}
}

func WithIdentityProvider(provider IdentityProvider) APIOption {
	return func(a *API) *API {
		a.Provider = provider
		return a
	}
}

func WithAPIConfig(cfg Config) APIOption {
	return func(a *API) *API {
		a.Config = cfg
		return a
	}
}

func WithAPIDebug(debug bool) APIOption {
	return func(a *API) *API {
		a.Debug = debug
		return a
	}
}

func NewAPI(opts ...APIOption) *API {
	a := &API{
		Logger: defLogger{},
	}

	for _, opt := range opts {
		a = opt(a)
	}

	if a.Repo == nil {
		panic("Missing RepositoryManager in blog API...")
	}

	if a.Auther == nil {
		panic("Missing Authenticator in blog API...")
	}

	if a.Tokens == nil {
		panic("Missing TokenService in blog API...")
	}

	if a.Provider == nil {
		panic("Missing IdentityProvider in blog API...")
	}

	if a.Config == nil {
		panic("Missing Config in blog API...")
	}

	return a
}

// RegisterRoutes mounts every endpoint. Routes under the gate require a
// valid token; the admin group additionally re-checks the role in the store.
func (a *API) RegisterRoutes(app *fiber.App) {
	gate := NewAuthGate(a.Tokens, a.Provider, a.Config, a.Logger)
	adminOnly := RequireRoles(a.Repo.Users(), a.Logger, RoleAdmin)

	api := app.Group("/api")

	api.Get("/health", a.Health)

	users := api.Group("/users")
	users.Post("/register", a.Register)
	users.Post("/login", a.Login)
	users.Get("/profile", gate, a.Profile)
	users.Get("/", gate, adminOnly, a.ListUsers)
	users.Put("/:id", gate, adminOnly, a.UpdateUser)
	users.Delete("/:id", gate, adminOnly, a.DeleteUser)

	posts := api.Group("/posts")
	// static segment must register ahead of the :id matcher
	posts.Get("/user/my-posts", gate, a.MyPosts)
	posts.Get("/", a.ListPosts)
	posts.Post("/", gate, a.CreatePost)
	posts.Get("/:id", a.GetPost)
	posts.Put("/:id", gate, a.UpdatePost)
	posts.Delete("/:id", gate, a.DeletePost)

	app.Use(a.NotFound)
}

func (a *API) Health(c *fiber.Ctx) error {
	return WriteSuccess(c, fiber.StatusOK, "Server is running!", nil)
}

func (a *API) NotFound(c *fiber.Ctx) error {
	clone := ErrNotFound.Clone()
	if clone == nil {
		return WriteError(c, ErrNotFound)
	}
	clone.Message = "Route not found"
	return WriteError(c, clone)
}

// RegisterRequest payload
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Validate will run validation rules
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Name,
			validation.Required,
			validation.Length(2, 50).Error("Name must be between 2 and 50 characters"),
			validation.Match(nameCharsRe).Error("Name can only contain letters and spaces"),
		),
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email.Error("Please provide a valid email"),
		),
		validation.Field(
			&r.Password,
			validation.Required,
			validation.Length(6, 0).Error("Password must be at least 6 characters long"),
			validation.By(validatePasswordStrength),
		),
		validation.Field(
			&r.Role,
			validation.In(string(RoleUser), string(RoleAdmin)).Error("Role must be either user or admin"),
		),
	)
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email.Error("Please provide a valid email"),
		),
		validation.Field(
			&r.Password,
			validation.Required.Error("Password is required"),
		),
	)
}

// UpdateUserRequest payload, all fields optional
type UpdateUserRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Role  *string `json:"role"`
}

// Validate will run validation rules
func (r UpdateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Name,
			validation.Length(2, 50).Error("Name must be between 2 and 50 characters"),
			validation.Match(nameCharsRe).Error("Name can only contain letters and spaces"),
		),
		validation.Field(
			&r.Email,
			is.Email.Error("Please provide a valid email"),
		),
		validation.Field(
			&r.Role,
			validation.In(string(RoleUser), string(RoleAdmin)).Error("Role must be either user or admin"),
		),
	)
}

// PostRequest payload for create and update
type PostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Validate will run validation rules
func (r PostRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Title,
			validation.Required,
			validation.Length(3, 100).Error("Title must be between 3 and 100 characters"),
		),
		validation.Field(
			&r.Content,
			validation.Required,
			validation.Length(10, 5000).Error("Content must be between 10 and 5000 characters"),
		),
	)
}

func (a *API) Register(c *fiber.Ctx) error {
	payload := new(RegisterRequest)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("register user parse payload: ", "error", err)
		return badRequestBody(err)
	}

	if err := payload.Validate(); err != nil {
		return validationError(err)
	}

	if a.Debug {
		a.Logger.Debug("register payload %s", print.MaybePrettyJSON(payload))
	}

	hash, err := HashPassword(payload.Password)
	if err != nil {
		return err
	}

	role := RoleUser
	if payload.Role != "" {
		role = UserRole(payload.Role)
	}

	user, err := a.Repo.Users().Create(c.UserContext(), &User{
		Name:         payload.Name,
		Email:        payload.Email,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		return err
	}

	token, err := a.Tokens.Generate(identityFromUser(user))
	if err != nil {
		return err
	}

	return WriteSuccess(c, fiber.StatusCreated, "User registered successfully", fiber.Map{
		"user":  user,
		"token": token,
	})
}

func (a *API) Login(c *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("login parse payload: ", "error", err)
		return badRequestBody(err)
	}

	if err := payload.Validate(); err != nil {
		return validationError(err)
	}

	token, err := a.Auther.Login(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return err
	}

	user, err := a.Repo.Users().GetByEmail(c.UserContext(), payload.Email)
	if err != nil {
		return err
	}

	return WriteSuccess(c, fiber.StatusOK, "Login successful", fiber.Map{
		"user":  user,
		"token": token,
	})
}

func (a *API) Profile(c *fiber.Ctx) error {
	ident, ok := IdentityFromContext(c.UserContext())
	if !ok {
		return ErrUnauthorized
	}

	uid, err := uuid.Parse(ident.ID())
	if err != nil {
		return ErrUnauthorized
	}

	user, err := a.Repo.Users().GetByID(c.UserContext(), uid)
	if err != nil {
		return err
	}

	return WriteSuccess(c, fiber.StatusOK, "", fiber.Map{
		"user": user,
	})
}

func (a *API) ListUsers(c *fiber.Ctx) error {
	pager := pagerFromQuery(c)

	users, total, err := a.Repo.Users().List(c.UserContext(), pager)
	if err != nil {
		return err
	}

	return WriteSuccess(c, fiber.StatusOK, "", fiber.Map{
		"users":      users,
		"pagination": NewPagination(pager, total),
	})
}

func (a *API) UpdateUser(c *fiber.Ctx) error {
	uid, err := parseID(c, "User")
	if err != nil {
		return err
	}

	ident, _ := IdentityFromContext(c.UserContext())
	if err := Authorize(ResourceUsers, ident, uid.String()); err != nil {
		return err
	}

	payload := new(UpdateUserRequest)
	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("update user parse payload: ", "error", err)
		return badRequestBody(err)
	}

	if err := payload.Validate(); err != nil {
		return validationError(err)
	}

	var rolePatch *UserRole
	if payload.Role != nil {
		role := UserRole(*payload.Role)
		rolePatch = &role
	}

	user, err := a.Repo.Users().Update(c.UserContext(), uid, UserPatch{
		Name:  payload.Name,
		Email: payload.Email,
		Role:  rolePatch,
	})
	if err != nil {
		return err
	}

	return WriteSuccess(c, fiber.StatusOK, "User updated successfully", fiber.Map{
		"user": user,
	})
}

func (a *API) DeleteUser(c *fiber.Ctx) error {
	uid, err := parseID(c, "User")
	if err != nil {
		return err
	}

	ident, _ := IdentityFromContext(c.UserContext())
	if err := Authorize(ResourceUsers, ident, uid.String()); err != nil {
		return err
	}

	if err := a.Repo.Users().Delete(c.UserContext(), uid); err != nil {
		return err
	}

	return WriteSuccess(c, fiber.StatusOK, "User deleted successfully", nil)
}

func (a *API) CreatePost(c *fiber.Ctx) error {
	ident, ok := IdentityFromContext(c.UserContext())
	if !ok {
		return ErrUnauthorized
	}

	payload := new(PostRequest)
	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("create post parse payload: ", "error", err)
		return badRequestBody(err)
	}

	if err := payload.Validate(); err != nil {
		return validationError(err)
	}

	authorID, err := uuid.Parse(ident.ID())
	if err != nil {
		return ErrUnauthorized
	}

	post, err := a.Repo.Posts().Create(c.UserContext(), &Post{
		Title:    payload.Title,
		Content:  payload.Content,
		AuthorID: authorID,
	})
	if err != nil {
		return err
	}

	return WriteSuccess(c, fiber.StatusCreated, "Post created successfully", fiber.Map{
		"post": post,
	})
}

func (a *API) ListPosts(c *fiber.Ctx) error {
	pager := pagerFromQuery(c)

	posts, total, err := a.Repo.Posts().List(c.UserContext(), pager)
	if err != nil {
		return err
	}

	return WriteSuccess(c, fiber.StatusOK, "", fiber.Map{
		"posts":      posts,
		"pagination": NewPagination(pager, total),
	})
}

func (a *API) GetPost(c *fiber.Ctx) error {
	pid, err := parseID(c, "Post")
	if err != nil {
		return err
	}

	post, err := a.Repo.Posts().GetByID(c.UserContext(), pid)
	if err != nil {
		return err
	}

	return WriteSuccess(c, fiber.StatusOK, "", fiber.Map{
		"post": post,
	})
}

func (a *API) MyPosts(c *fiber.Ctx) error {
	ident, ok := IdentityFromContext(c.UserContext())
	if !ok {
		return ErrUnauthorized
	}

	authorID, err := uuid.Parse(ident.ID())
	if err != nil {
		return ErrUnauthorized
	}

	pager := pagerFromQuery(c)

	posts, total, err := a.Repo.Posts().ListByAuthor(c.UserContext(), authorID, pager)
	if err != nil {
		return err
	}

	return WriteSuccess(c, fiber.StatusOK, "", fiber.Map{
		"posts":      posts,
		"pagination": NewPagination(pager, total),
	})
}

// UpdatePost lets the author change title and content. The record lookup
// runs before the ownership check so a missing post reads as 404, not 403.
func (a *API) UpdatePost(c *fiber.Ctx) error {
	pid, err := parseID(c, "Post")
	if err != nil {
		return err
	}

	post, err := a.Repo.Posts().GetByID(c.UserContext(), pid)
	if err != nil {
		return err
	}

	ident, _ := IdentityFromContext(c.UserContext())
	if err := Authorize(ResourcePosts, ident, post.AuthorID.String()); err != nil {
		return err
	}

	payload := new(PostRequest)
	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("update post parse payload: ", "error", err)
		return badRequestBody(err)
	}

	if err := payload.Validate(); err != nil {
		return validationError(err)
	}

	updated, err := a.Repo.Posts().Update(c.UserContext(), pid, PostPatch{
		Title:   &payload.Title,
		Content: &payload.Content,
	})
	if err != nil {
		return err
	}

	return WriteSuccess(c, fiber.StatusOK, "Post updated successfully", fiber.Map{
		"post": updated,
	})
}

func (a *API) DeletePost(c *fiber.Ctx) error {
	pid, err := parseID(c, "Post")
	if err != nil {
		return err
	}

	post, err := a.Repo.Posts().GetByID(c.UserContext(), pid)
	if err != nil {
		return err
	}

	ident, _ := IdentityFromContext(c.UserContext())
	if err := Authorize(ResourcePosts, ident, post.AuthorID.String()); err != nil {
		return err
	}

	if err := a.Repo.Posts().Delete(c.UserContext(), pid); err != nil {
		return err
	}

	return WriteSuccess(c, fiber.StatusOK, "Post deleted successfully", nil)
}

func pagerFromQuery(c *fiber.Ctx) Pager {
	return NewPager(
		c.QueryInt("page", 1),
		c.QueryInt("limit", DefaultPageSize),
	)
}

// parseID reads the :id route parameter; a malformed id reads the same as a
// missing record.
func parseID(c *fiber.Ctx, kind string) (uuid.UUID, error) {
	raw := c.Params("id")

	uid, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, notFound(kind, raw)
	}

	return uid, nil
}

// validatePasswordStrength mirrors the lookahead rule clients already rely
// on: at least one lowercase letter, one uppercase letter, and one digit.
func validatePasswordStrength(value any) error {
	password, _ := value.(string)

	var lower, upper, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}

	if !lower || !upper || !digit {
		return goerrors.New(
			"Password must contain at least one lowercase letter, one uppercase letter, and one number",
			goerrors.CategoryValidation,
		)
	}

	return nil
}

func badRequestBody(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryBadInput, "Failed to parse request body").
		WithCode(goerrors.CodeBadRequest).
		WithTextCode(textCodeValidationFailed)
}

func validationError(err error) error {
	verrs, ok := err.(validation.Errors)
	if !ok {
		return badRequestBody(err)
	}

	fields := make(map[string]string, len(verrs))
	for field, ferr := range verrs {
		fields[field] = ferr.Error()
	}

	return goerrors.New("Validation failed", goerrors.CategoryValidation).
		WithCode(goerrors.CodeBadRequest).
		WithTextCode(textCodeValidationFailed).
		WithMetadata(map[string]any{"fields": fields})
}
