package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Alessandro1809/blog-api/models"
	"github.com/Alessandro1809/blog-api/utils"
)

// AuthorClient resolves public author profiles from the external identity
// service. Lookups are batched, fetched in parallel and cached per author;
// an unknown or unreachable identity degrades to a neutral placeholder so a
// single bad reference never fails a whole page of posts.
type AuthorClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewAuthorClient builds a client for the identity API. An empty base URL
// disables remote lookups entirely; every author resolves to a placeholder.
func NewAuthorClient(baseURL, token string) *AuthorClient {
	return &AuthorClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

type identityUser struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	ImageURL  string `json:"image_url"`
	Username  string `json:"username"`
}

// GetAuthors resolves a set of author ids to profiles. Every requested id is
// present in the result.
func (c *AuthorClient) GetAuthors(ids []string) map[string]models.AuthorInfo {
	authors := make(map[string]models.AuthorInfo, len(ids))
	unique := utils.UniqueStrings(ids)

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, id := range unique {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			info := c.getAuthor(id)
			mu.Lock()
			authors[id] = info
			mu.Unlock()
		}(id)
	}
	wg.Wait()
	return authors
}

// EnrichPosts attaches author profiles to a page of posts.
func (c *AuthorClient) EnrichPosts(posts []models.Post) {
	if len(posts) == 0 {
		return
	}
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.AuthorID)
	}
	authors := c.GetAuthors(ids)
	for i := range posts {
		info := authors[posts[i].AuthorID]
		posts[i].Author = &info
	}
}

// EnrichPost attaches the author profile to a single post.
func (c *AuthorClient) EnrichPost(post *models.Post) {
	authors := c.GetAuthors([]string{post.AuthorID})
	info := authors[post.AuthorID]
	post.Author = &info
}

func (c *AuthorClient) getAuthor(id string) models.AuthorInfo {
	cacheKey := "cache:author:" + id
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		var info models.AuthorInfo
		if err := json.Unmarshal(b, &info); err == nil {
			return info
		}
	}

	info := placeholderAuthor(id)
	if c.baseURL == "" {
		return info
	}

	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/users/%s", c.baseURL, id), nil)
	if err != nil {
		return info
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if utils.Sugar != nil {
			utils.Sugar.Warnf("author lookup failed id=%s err=%v", id, err)
		}
		return info
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return info
	}

	var user identityUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return info
	}

	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" {
		name = user.Username
	}
	if name == "" {
		name = "Usuario"
	}
	info = models.AuthorInfo{
		ID:       user.ID,
		Name:     name,
		Avatar:   user.ImageURL,
		Username: user.Username,
	}
	utils.CacheSetJSON(cacheKey, info, 10*time.Minute)
	return info
}

// placeholderAuthor is the neutral profile used when the identity service
// cannot resolve an id.
func placeholderAuthor(id string) models.AuthorInfo {
	return models.AuthorInfo{ID: id, Name: "Usuario"}
}
