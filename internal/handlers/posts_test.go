package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// jpegHeader is enough of a JPEG for content sniffing
var jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46, 0x49, 0x46, 0x00}

var errDeleteRefused = errors.New("delete refused")

func (suite *HandlersTestSuite) doRequest(method, path string, body *bytes.Buffer, contentType, userID string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlersTestSuite) doJSON(method, path string, payload interface{}, userID string) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		require.NoError(suite.T(), json.NewEncoder(&body).Encode(payload))
	}
	return suite.doRequest(method, path, &body, "application/json", userID)
}

func (suite *HandlersTestSuite) multipartImage(imageData []byte, caption string) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if imageData != nil {
		part, err := writer.CreateFormFile("image", "photo.jpg")
		require.NoError(suite.T(), err)
		_, err = part.Write(imageData)
		require.NoError(suite.T(), err)
	}
	if caption != "" {
		require.NoError(suite.T(), writer.WriteField("caption", caption))
	}
	require.NoError(suite.T(), writer.Close())
	return body, writer.FormDataContentType()
}

func decodeBody(suite *HandlersTestSuite, w *httptest.ResponseRecorder) map[string]interface{} {
	var response map[string]interface{}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func (suite *HandlersTestSuite) TestListPostsRequiresAuth() {
	w := suite.doRequest("GET", "/api/v1/posts", nil, "", "")
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func (suite *HandlersTestSuite) TestListPostsPagination() {
	t := suite.T()
	for i := 0; i < 15; i++ {
		post := suite.createPost(suite.testUser.ID, nil)
		// Spread creation times so ordering is deterministic
		suite.db.Model(post).Update("created_at", time.Now().Add(-time.Duration(i)*time.Minute))
	}

	w := suite.doRequest("GET", "/api/v1/posts?limit=10&offset=0", nil, "", suite.testUser.ID)
	require.Equal(t, http.StatusOK, w.Code)

	response := decodeBody(suite, w)
	assert.Equal(t, float64(15), response["total"])
	assert.Equal(t, true, response["has_more"])
	assert.Len(t, response["posts"], 10)

	w = suite.doRequest("GET", "/api/v1/posts?limit=10&offset=10", nil, "", suite.testUser.ID)
	require.Equal(t, http.StatusOK, w.Code)
	response = decodeBody(suite, w)
	assert.Equal(t, false, response["has_more"])
	assert.Len(t, response["posts"], 5)
}

func (suite *HandlersTestSuite) TestListPostsNewestFirst() {
	t := suite.T()
	oldPost := suite.createPost(suite.testUser.ID, strPtr("old"))
	suite.db.Model(oldPost).Update("created_at", time.Now().Add(-time.Hour))
	newPost := suite.createPost(suite.testUser.ID, strPtr("new"))

	w := suite.doRequest("GET", "/api/v1/posts", nil, "", suite.testUser.ID)
	require.Equal(t, http.StatusOK, w.Code)

	response := decodeBody(suite, w)
	posts := response["posts"].([]interface{})
	require.Len(t, posts, 2)
	assert.Equal(t, newPost.ID, posts[0].(map[string]interface{})["id"])
	assert.Equal(t, oldPost.ID, posts[1].(map[string]interface{})["id"])
}

func (suite *HandlersTestSuite) TestListPostsLimitBounds() {
	for _, limit := range []string{"0", "51", "-1", "abc"} {
		w := suite.doRequest("GET", "/api/v1/posts?limit="+limit, nil, "", suite.testUser.ID)
		assert.Equal(suite.T(), http.StatusBadRequest, w.Code, "limit=%s should be rejected", limit)
	}

	w := suite.doRequest("GET", "/api/v1/posts?limit=50", nil, "", suite.testUser.ID)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
}

func (suite *HandlersTestSuite) TestListPostsAuthorFilter() {
	t := suite.T()
	suite.createPost(suite.testUser.ID, nil)
	suite.createPost(suite.otherUser.ID, nil)

	w := suite.doRequest("GET", "/api/v1/posts?userId="+suite.otherUser.ID, nil, "", suite.testUser.ID)
	require.Equal(t, http.StatusOK, w.Code)

	response := decodeBody(suite, w)
	posts := response["posts"].([]interface{})
	require.Len(t, posts, 1)
	author := posts[0].(map[string]interface{})["author"].(map[string]interface{})
	assert.Equal(t, suite.otherUser.ID, author["id"])
}

func (suite *HandlersTestSuite) TestListPostsAuthorFilterRejectsMalformedID() {
	w := suite.doRequest("GET", "/api/v1/posts?userId=not-a-uuid", nil, "", suite.testUser.ID)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "userId")
}

func (suite *HandlersTestSuite) TestListPostsEnrichment() {
	t := suite.T()
	post := suite.createPost(suite.otherUser.ID, strPtr("caption here"))

	suite.doJSON("POST", "/api/v1/likes", map[string]string{"post_id": post.ID}, suite.testUser.ID)
	for i := 0; i < 3; i++ {
		w := suite.doJSON("POST", "/api/v1/comments", map[string]string{
			"post_id": post.ID,
			"content": fmt.Sprintf("comment %d", i),
		}, suite.testUser.ID)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := suite.doRequest("GET", "/api/v1/posts", nil, "", suite.testUser.ID)
	require.Equal(t, http.StatusOK, w.Code)

	response := decodeBody(suite, w)
	posts := response["posts"].([]interface{})
	require.Len(t, posts, 1)
	view := posts[0].(map[string]interface{})

	assert.Equal(t, float64(1), view["like_count"])
	assert.Equal(t, float64(3), view["comment_count"])
	assert.Equal(t, true, view["liked"], "caller liked the post")
	assert.Len(t, view["comments"], 2, "feed carries a two-comment preview")

	author := view["author"].(map[string]interface{})
	assert.Equal(t, suite.otherUser.Username, author["username"])

	// The other user never liked it
	w = suite.doRequest("GET", "/api/v1/posts", nil, "", suite.otherUser.ID)
	require.Equal(t, http.StatusOK, w.Code)
	response = decodeBody(suite, w)
	view = response["posts"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, false, view["liked"])
}

func (suite *HandlersTestSuite) TestGetPostFullComments() {
	t := suite.T()
	post := suite.createPost(suite.testUser.ID, nil)
	for i := 0; i < 4; i++ {
		w := suite.doJSON("POST", "/api/v1/comments", map[string]string{
			"post_id": post.ID,
			"content": fmt.Sprintf("comment %d", i),
		}, suite.otherUser.ID)
		require.Equal(t, http.StatusOK, w.Code)
		time.Sleep(5 * time.Millisecond)
	}

	w := suite.doRequest("GET", "/api/v1/posts/"+post.ID, nil, "", suite.testUser.ID)
	require.Equal(t, http.StatusOK, w.Code)

	response := decodeBody(suite, w)
	view := response["post"].(map[string]interface{})
	comments := view["comments"].([]interface{})
	require.Len(t, comments, 4, "detail view carries the full comment list")
	assert.Equal(t, "comment 0", comments[0].(map[string]interface{})["content"], "oldest first")
	assert.Equal(t, "comment 3", comments[3].(map[string]interface{})["content"])
}

func (suite *HandlersTestSuite) TestGetPostNotFound() {
	w := suite.doRequest("GET", "/api/v1/posts/00000000-0000-0000-0000-000000000000", nil, "", suite.testUser.ID)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestCreatePostRoundTrip() {
	t := suite.T()
	body, contentType := suite.multipartImage(jpegHeader, "  my first post  ")

	w := suite.doRequest("POST", "/api/v1/posts", body, contentType, suite.testUser.ID)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	response := decodeBody(suite, w)
	view := response["post"].(map[string]interface{})
	assert.Equal(t, "my first post", view["caption"], "caption is trimmed")
	assert.NotEmpty(t, view["image_url"])
	require.Len(t, suite.mockStore.Uploads, 1)
	assert.Equal(t, view["image_url"], suite.mockStore.Uploads[0].URL)

	// Fetch it back
	w = suite.doRequest("GET", "/api/v1/posts/"+view["id"].(string), nil, "", suite.testUser.ID)
	require.Equal(t, http.StatusOK, w.Code)
	fetched := decodeBody(suite, w)["post"].(map[string]interface{})
	assert.Equal(t, "my first post", fetched["caption"])
	assert.Equal(t, view["image_url"], fetched["image_url"])
}

func (suite *HandlersTestSuite) TestCreatePostWithoutCaption() {
	t := suite.T()
	body, contentType := suite.multipartImage(jpegHeader, "")

	w := suite.doRequest("POST", "/api/v1/posts", body, contentType, suite.testUser.ID)
	require.Equal(t, http.StatusOK, w.Code)

	view := decodeBody(suite, w)["post"].(map[string]interface{})
	assert.Nil(t, view["caption"], "missing caption is stored as null")
}

func (suite *HandlersTestSuite) TestCreatePostMissingImage() {
	body, contentType := suite.multipartImage(nil, "no image here")
	w := suite.doRequest("POST", "/api/v1/posts", body, contentType, suite.testUser.ID)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestCreatePostOversizedImage() {
	t := suite.T()
	oversized := append(append([]byte{}, jpegHeader...), bytes.Repeat([]byte{0x00}, 6*1024*1024)...)
	body, contentType := suite.multipartImage(oversized, "")

	w := suite.doRequest("POST", "/api/v1/posts", body, contentType, suite.testUser.ID)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "5MB")
	assert.Empty(t, suite.mockStore.Uploads, "nothing reaches storage")
}

func (suite *HandlersTestSuite) TestCreatePostRejectsNonImage() {
	body, contentType := suite.multipartImage([]byte("%PDF-1.4 not an image"), "")
	w := suite.doRequest("POST", "/api/v1/posts", body, contentType, suite.testUser.ID)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestCreatePostOverlongCaption() {
	longCaption := string(bytes.Repeat([]byte("a"), 2201))
	body, contentType := suite.multipartImage(jpegHeader, longCaption)
	w := suite.doRequest("POST", "/api/v1/posts", body, contentType, suite.testUser.ID)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestCreatePostInsertFailureCleansUpObject() {
	t := suite.T()
	// Take the posts table away so the insert after a successful
	// upload fails
	require.NoError(t, suite.db.Exec("ALTER TABLE posts RENAME TO posts_unavailable").Error)
	defer func() {
		require.NoError(t, suite.db.Exec("ALTER TABLE posts_unavailable RENAME TO posts").Error)
	}()

	body, contentType := suite.multipartImage(jpegHeader, "never lands")
	w := suite.doRequest("POST", "/api/v1/posts", body, contentType, suite.testUser.ID)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Len(t, suite.mockStore.Uploads, 1, "image was stored before the insert")
	assert.Equal(t, []string{suite.mockStore.Uploads[0].Key}, suite.mockStore.Deleted,
		"orphaned object is deleted")
}

func (suite *HandlersTestSuite) TestCreatePostInsertFailureSurvivesCleanupFailure() {
	t := suite.T()
	require.NoError(t, suite.db.Exec("ALTER TABLE posts RENAME TO posts_unavailable").Error)
	defer func() {
		require.NoError(t, suite.db.Exec("ALTER TABLE posts_unavailable RENAME TO posts").Error)
	}()
	suite.mockStore.DeleteErr = errDeleteRefused

	body, contentType := suite.multipartImage(jpegHeader, "")
	w := suite.doRequest("POST", "/api/v1/posts", body, contentType, suite.testUser.ID)

	// Cleanup failure is logged, not surfaced; the client still gets 500
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, suite.mockStore.Deleted)
}

func (suite *HandlersTestSuite) TestCreatePostBodyOverCap() {
	t := suite.T()
	huge := append(append([]byte{}, jpegHeader...), bytes.Repeat([]byte{0x00}, 11*1024*1024)...)
	body, contentType := suite.multipartImage(huge, "")

	w := suite.doRequest("POST", "/api/v1/posts", body, contentType, suite.testUser.ID)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "PAYLOAD_TOO_LARGE")
	assert.Empty(t, suite.mockStore.Uploads)
}

func (suite *HandlersTestSuite) TestUpdatePostCaption() {
	t := suite.T()
	post := suite.createPost(suite.testUser.ID, strPtr("before"))

	w := suite.doJSON("PATCH", "/api/v1/posts/"+post.ID, map[string]string{"caption": "after"}, suite.testUser.ID)
	require.Equal(t, http.StatusOK, w.Code)
	view := decodeBody(suite, w)["post"].(map[string]interface{})
	assert.Equal(t, "after", view["caption"])

	// Empty caption coalesces to null
	w = suite.doJSON("PATCH", "/api/v1/posts/"+post.ID, map[string]string{"caption": "   "}, suite.testUser.ID)
	require.Equal(t, http.StatusOK, w.Code)
	view = decodeBody(suite, w)["post"].(map[string]interface{})
	assert.Nil(t, view["caption"])
}

func (suite *HandlersTestSuite) TestUpdatePostNonOwnerForbidden() {
	post := suite.createPost(suite.testUser.ID, nil)
	w := suite.doJSON("PATCH", "/api/v1/posts/"+post.ID, map[string]string{"caption": "hijacked"}, suite.otherUser.ID)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
}

func (suite *HandlersTestSuite) TestDeletePostCascades() {
	t := suite.T()
	post := suite.createPost(suite.testUser.ID, nil)

	w := suite.doJSON("POST", "/api/v1/likes", map[string]string{"post_id": post.ID}, suite.otherUser.ID)
	require.Equal(t, http.StatusOK, w.Code)
	w = suite.doJSON("POST", "/api/v1/comments", map[string]string{"post_id": post.ID, "content": "bye"}, suite.otherUser.ID)
	require.Equal(t, http.StatusOK, w.Code)

	w = suite.doRequest("DELETE", "/api/v1/posts/"+post.ID, nil, "", suite.testUser.ID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, suite.mockStore.Deleted, post.StorageKey)

	var likeCount, commentCount int64
	suite.db.Table("likes").Where("post_id = ?", post.ID).Count(&likeCount)
	suite.db.Table("comments").Where("post_id = ?", post.ID).Count(&commentCount)
	assert.Zero(t, likeCount, "likes cascade with the post")
	assert.Zero(t, commentCount, "comments cascade with the post")

	w = suite.doRequest("GET", "/api/v1/posts/"+post.ID, nil, "", suite.testUser.ID)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestDeletePostNonOwnerForbidden() {
	post := suite.createPost(suite.testUser.ID, nil)
	w := suite.doRequest("DELETE", "/api/v1/posts/"+post.ID, nil, "", suite.otherUser.ID)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)

	var count int64
	suite.db.Table("posts").Where("id = ?", post.ID).Count(&count)
	assert.Equal(suite.T(), int64(1), count)
}
