package server

import (
	"mime/multipart"
	"strings"

	"miniblog/internal/middleware"
	"miniblog/internal/models"
	"miniblog/internal/service"

	"github.com/gofiber/fiber/v2"
)

// postPayload is the JSON body accepted by create and update. Nil fields were not sent.
type postPayload struct {
	Title   *service.LooseString `json:"title"`
	Content *service.LooseString `json:"content"`
	Tags    *service.TagList     `json:"tags"`
}

// postForm is a create/update request after decoding either body encoding.
type postForm struct {
	title   *string
	content *string
	tags    *service.TagList
	image   *multipart.FileHeader
}

func looseField(v *service.LooseString) *string {
	if v == nil {
		return nil
	}
	s := v.String()
	return &s
}

func formField(values map[string][]string, key string) *string {
	v, ok := values[key]
	if !ok || len(v) == 0 {
		return nil
	}
	return &v[0]
}

// formTags reads the tags part. A single value is parsed like a JSON tags string,
// repeated values are taken as the list itself.
func formTags(values map[string][]string) *service.TagList {
	v, ok := values["tags"]
	if !ok || len(v) == 0 {
		return nil
	}

	var tags service.TagList
	if len(v) == 1 {
		tags = service.ParseTags(v[0])
	} else {
		tags = service.TagList{}
		for _, name := range v {
			if name = strings.TrimSpace(name); name != "" {
				tags = append(tags, name)
			}
		}
	}
	return &tags
}

func readPostForm(c *fiber.Ctx) (*postForm, error) {
	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			return nil, models.NewValidationError("Invalid request body")
		}
		f := &postForm{
			title:   formField(form.Value, "title"),
			content: formField(form.Value, "content"),
			tags:    formTags(form.Value),
		}
		if files := form.File["image"]; len(files) > 0 {
			f.image = files[0]
		}
		return f, nil
	}

	var req postPayload
	if err := parseJSONBody(c, &req); err != nil {
		return nil, err
	}
	return &postForm{
		title:   looseField(req.Title),
		content: looseField(req.Content),
		tags:    req.Tags,
	}, nil
}

// saveImage stores the uploaded image, if any, and returns its public path.
func (s *Server) saveImage(c *fiber.Ctx, f *postForm) (string, error) {
	if f.image == nil {
		return "", nil
	}
	return s.uploads.Save(c.UserContext(), f.image)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ListPosts handles GET /api/posts
// @Summary List posts
// @Description Newest first, five per page. search matches title, tags or author username.
// @Tags posts
// @Produce json
// @Param search query string false "Case-insensitive search term"
// @Param page query int false "Page number (1-based)"
// @Param mine query string false "1 to list only the caller's posts"
// @Success 200 {object} models.PostPage
// @Router /posts [get]
func (s *Server) ListPosts(c *fiber.Ctx) error {
	in := service.ListPostsInput{
		Search: c.Query("search"),
		Page:   parsePage(c),
		Mine:   c.Query("mine") == "1",
	}
	if user := middleware.CurrentUser(c); user != nil {
		in.CallerID = user.ID
	}

	page, err := s.postService.List(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(page)
}

// CreatePost handles POST /api/posts
// @Summary Create post
// @Description Accepts JSON or multipart/form-data with an optional image part
// @Tags posts
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Title"
// @Param content formData string false "Content"
// @Param tags formData string false "JSON array or comma-separated tags"
// @Param image formData file false "Image (jpeg, png, gif, webp; max 5MB)"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	form, err := readPostForm(c)
	if err != nil {
		return respondError(c, err)
	}

	imagePath, err := s.saveImage(c, form)
	if err != nil {
		return respondError(c, err)
	}

	post, err := s.postService.Create(c.UserContext(), service.CreatePostInput{
		Author:    user.Ref(),
		Title:     deref(form.title),
		Content:   deref(form.content),
		Tags:      form.tags,
		ImagePath: imagePath,
	})
	if err != nil {
		s.uploads.Remove(imagePath)
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PUT /api/posts/:id
// @Summary Update post
// @Description Only fields that are sent are changed. Only the author may update.
// @Tags posts
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	postID, err := parsePostID(c)
	if err != nil {
		return respondError(c, err)
	}

	form, err := readPostForm(c)
	if err != nil {
		return respondError(c, err)
	}

	imagePath, err := s.saveImage(c, form)
	if err != nil {
		return respondError(c, err)
	}

	in := service.UpdatePostInput{
		CallerID: user.ID,
		PostID:   postID,
		Title:    form.title,
		Content:  form.content,
		Tags:     form.tags,
	}
	if imagePath != "" {
		in.ImagePath = &imagePath
	}

	post, err := s.postService.Update(c.UserContext(), in)
	if err != nil {
		s.uploads.Remove(imagePath)
		return respondError(c, err)
	}

	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	postID, err := parsePostID(c)
	if err != nil {
		return respondError(c, err)
	}

	if err := s.postService.Delete(c.UserContext(), user.ID, postID); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Post deleted"})
}

// ToggleLike handles POST /api/posts/:id/like
// @Summary Like or unlike a post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/like [post]
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	postID, err := parsePostID(c)
	if err != nil {
		return respondError(c, err)
	}

	post, err := s.postService.ToggleLike(c.UserContext(), user.ID, postID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(post)
}

// AddComment handles POST /api/posts/:id/comments
// @Summary Comment on a post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body object{text=string} true "Comment"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comments [post]
func (s *Server) AddComment(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	postID, err := parsePostID(c)
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		Text service.LooseString `json:"text"`
	}
	if err := parseJSONBody(c, &req); err != nil {
		return respondError(c, err)
	}

	post, err := s.postService.AddComment(c.UserContext(), service.AddCommentInput{
		CallerID: user.ID,
		PostID:   postID,
		Text:     req.Text.String(),
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(post)
}
