// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes one user's articles to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/articlegen/internal/apperr"
	"github.com/starford/articlegen/internal/articles"
	"github.com/starford/articlegen/internal/images"
	"github.com/starford/articlegen/internal/models"
	"github.com/starford/articlegen/internal/wizard"
)

const formatURI = "articlegen://article-format"

// Server wraps the MCP server with the article tools. Every tool acts on
// behalf of a single owner.
type Server struct {
	mcp      *server.MCPServer
	articles *articles.Service
	images   *images.Store
	owner    string
}

// New creates a new MCP server with all tools registered for owner.
func New(arts *articles.Service, imgs *images.Store, owner string) *Server {
	s := &Server{articles: arts, images: imgs, owner: owner}

	s.mcp = server.NewMCPServer(
		"articlegen",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_articles",
		mcp.WithDescription("List the user's articles, newest first."),
		mcp.WithString("status", mcp.Description("Optional status filter"), mcp.Enum(models.StatusDraft, models.StatusPublished)),
		mcp.WithNumber("limit", mcp.Description("Maximum number of articles (default 20)")),
	), s.listArticles)

	s.mcp.AddTool(mcp.NewTool("read_article",
		mcp.WithDescription("Read the full Markdown content and metadata of an article."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Article id")),
	), s.readArticle)

	s.mcp.AddTool(mcp.NewTool("search_articles",
		mcp.WithDescription("Full-text search through article titles and content."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchArticles)

	s.mcp.AddTool(mcp.NewTool("save_draft",
		mcp.WithDescription("Save an article as a draft. Content MUST follow the article "+
			"format contract; read it first via the get_article_contract tool or the "+
			formatURI+" resource. Pass id to revise an existing article."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Article title")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown body without frontmatter")),
		mcp.WithString("meta_description", mcp.Description("SEO description, at most 160 characters; derived from the first paragraph when omitted")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags")),
		mcp.WithString("featured_image", mcp.Description("Image URL returned by upload_image")),
		mcp.WithString("id", mcp.Description("Existing article id to overwrite")),
	), s.saveDraft)

	s.mcp.AddTool(mcp.NewTool("upload_image",
		mcp.WithDescription("Store a featured image from a base64 data URI or an http(s) URL. "+
			"Returns the URL to pass as featured_image."),
		mcp.WithString("url", mcp.Required(), mcp.Description("data:image/...;base64,... or https://...")),
	), s.uploadImage)

	s.mcp.AddTool(mcp.NewTool("get_article_contract",
		mcp.WithDescription("Returns the article format contract. "+
			"Call this before saving drafts to ensure correct structure."),
	), s.getArticleContract)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Article Format Contract",
			mcp.WithResourceDescription("Markdown article format that saved drafts must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) listArticles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := req.GetString("status", "")
	limit := req.GetInt("limit", 20)
	items, total, err := s.articles.List(ctx, s.owner, status, limit, 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"articles": items, "total": total}), nil
}

func (s *Server) readArticle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	a, err := s.articles.Get(ctx, s.owner, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(a), nil
}

func (s *Server) searchArticles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.articles.Search(ctx, s.owner, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out := make([]map[string]string, len(results))
	for i, r := range results {
		out[i] = map[string]string{"id": r.ID, "title": r.Title, "snippet": r.Snippet}
	}
	return jsonResult(out), nil
}

func (s *Server) saveDraft(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
		return mcp.NewToolResultError("title and content must not be blank"), nil
	}

	article := models.ArticleRequest{
		OutlineRequest: models.OutlineRequest{Title: strings.TrimSpace(title)},
		Keywords:       splitTags(req.GetString("tags", "")),
	}
	var edits wizard.Edits
	if meta := req.GetString("meta_description", ""); meta != "" {
		edits.MetaDescription = &meta
	}
	if img := req.GetString("featured_image", ""); img != "" {
		edits.FeaturedImage = &img
	}
	final := wizard.Resolve(edits, article, article.OutlineRequest, content)
	if err := wizard.ValidateFinal(final); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := s.articles.SaveDraft(ctx, models.Submission{
		ID:      req.GetString("id", ""),
		OwnerID: s.owner,
		Article: final,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res), nil
}

func (s *Server) uploadImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawURL, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := images.Fetch(ctx, rawURL)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := s.images.Save(data)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	url := images.URL(name)
	return jsonResult(map[string]string{
		"url":           url,
		"markdownImage": fmt.Sprintf("![%s](%s)", name, url),
	}), nil
}

func (s *Server) getArticleContract(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ArticleFormatContract), nil
}

func (s *Server) readFormatResource(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     ArticleFormatContract,
		},
	}, nil
}

// splitTags parses a comma-separated list, trimming and dropping duplicates.
func splitTags(s string) []string {
	var out []string
	seen := map[string]bool{}
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
