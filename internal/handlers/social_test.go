package handlers

import (
	"net/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *HandlersTestSuite) TestLikePost() {
	t := suite.T()
	post := suite.createPost(suite.otherUser.ID, nil)

	w := suite.doJSON("POST", "/api/v1/likes", map[string]string{"post_id": post.ID}, suite.testUser.ID)
	require.Equal(t, http.StatusOK, w.Code)

	response := decodeBody(suite, w)
	like := response["like"].(map[string]interface{})
	assert.Equal(t, post.ID, like["post_id"])
	assert.Equal(t, suite.testUser.ID, like["user_id"])
}

func (suite *HandlersTestSuite) TestDoubleLikeConflicts() {
	t := suite.T()
	post := suite.createPost(suite.otherUser.ID, nil)

	w := suite.doJSON("POST", "/api/v1/likes", map[string]string{"post_id": post.ID}, suite.testUser.ID)
	require.Equal(t, http.StatusOK, w.Code)

	w = suite.doJSON("POST", "/api/v1/likes", map[string]string{"post_id": post.ID}, suite.testUser.ID)
	assert.Equal(t, http.StatusConflict, w.Code)

	var count int64
	suite.db.Table("likes").Where("post_id = ?", post.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func (suite *HandlersTestSuite) TestLikeMissingPost() {
	w := suite.doJSON("POST", "/api/v1/likes", map[string]string{"post_id": "00000000-0000-0000-0000-000000000000"}, suite.testUser.ID)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestUnlikeIsIdempotent() {
	t := suite.T()
	post := suite.createPost(suite.otherUser.ID, nil)

	// Never liked, still a success
	w := suite.doRequest("DELETE", "/api/v1/likes?postId="+post.ID, nil, "", suite.testUser.ID)
	assert.Equal(t, http.StatusOK, w.Code)

	w = suite.doJSON("POST", "/api/v1/likes", map[string]string{"post_id": post.ID}, suite.testUser.ID)
	require.Equal(t, http.StatusOK, w.Code)

	w = suite.doRequest("DELETE", "/api/v1/likes?postId="+post.ID, nil, "", suite.testUser.ID)
	assert.Equal(t, http.StatusOK, w.Code)

	var count int64
	suite.db.Table("likes").Where("post_id = ?", post.ID).Count(&count)
	assert.Zero(t, count)
}

func (suite *HandlersTestSuite) TestFollowUser() {
	t := suite.T()

	w := suite.doJSON("POST", "/api/v1/follows", map[string]string{"following_id": suite.otherUser.ID}, suite.testUser.ID)
	require.Equal(t, http.StatusOK, w.Code)

	follow := decodeBody(suite, w)["follow"].(map[string]interface{})
	assert.Equal(t, suite.testUser.ID, follow["follower_id"])
	assert.Equal(t, suite.otherUser.ID, follow["following_id"])
}

func (suite *HandlersTestSuite) TestSelfFollowRejected() {
	w := suite.doJSON("POST", "/api/v1/follows", map[string]string{"following_id": suite.testUser.ID}, suite.testUser.ID)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestDoubleFollowConflicts() {
	t := suite.T()

	w := suite.doJSON("POST", "/api/v1/follows", map[string]string{"following_id": suite.otherUser.ID}, suite.testUser.ID)
	require.Equal(t, http.StatusOK, w.Code)

	w = suite.doJSON("POST", "/api/v1/follows", map[string]string{"following_id": suite.otherUser.ID}, suite.testUser.ID)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func (suite *HandlersTestSuite) TestFollowMissingUser() {
	w := suite.doJSON("POST", "/api/v1/follows", map[string]string{"following_id": "00000000-0000-0000-0000-000000000000"}, suite.testUser.ID)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestUnfollowIsIdempotent() {
	t := suite.T()

	w := suite.doRequest("DELETE", "/api/v1/follows?followingId="+suite.otherUser.ID, nil, "", suite.testUser.ID)
	assert.Equal(t, http.StatusOK, w.Code)

	w = suite.doJSON("POST", "/api/v1/follows", map[string]string{"following_id": suite.otherUser.ID}, suite.testUser.ID)
	require.Equal(t, http.StatusOK, w.Code)

	w = suite.doRequest("DELETE", "/api/v1/follows?followingId="+suite.otherUser.ID, nil, "", suite.testUser.ID)
	assert.Equal(t, http.StatusOK, w.Code)

	var count int64
	suite.db.Table("follows").Where("follower_id = ?", suite.testUser.ID).Count(&count)
	assert.Zero(t, count)
}

func (suite *HandlersTestSuite) TestGetMeWithStats() {
	t := suite.T()
	suite.createPost(suite.testUser.ID, nil)
	suite.createPost(suite.testUser.ID, nil)

	w := suite.doJSON("POST", "/api/v1/follows", map[string]string{"following_id": suite.testUser.ID}, suite.otherUser.ID)
	require.Equal(t, http.StatusOK, w.Code)

	w = suite.doRequest("GET", "/api/v1/users/me", nil, "", suite.testUser.ID)
	require.Equal(t, http.StatusOK, w.Code)

	response := decodeBody(suite, w)
	user := response["user"].(map[string]interface{})
	assert.Equal(t, suite.testUser.Username, user["username"])

	stats := response["stats"].(map[string]interface{})
	assert.Equal(t, float64(2), stats["post_count"])
	assert.Equal(t, float64(1), stats["follower_count"])
	assert.Equal(t, float64(0), stats["following_count"])
}

func (suite *HandlersTestSuite) TestGetUserNotFound() {
	w := suite.doRequest("GET", "/api/v1/users/00000000-0000-0000-0000-000000000000", nil, "", suite.testUser.ID)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestGetUserPosts() {
	t := suite.T()
	suite.createPost(suite.otherUser.ID, nil)
	suite.createPost(suite.otherUser.ID, nil)
	suite.createPost(suite.testUser.ID, nil)

	w := suite.doRequest("GET", "/api/v1/users/"+suite.otherUser.ID+"/posts", nil, "", suite.testUser.ID)
	require.Equal(t, http.StatusOK, w.Code)

	response := decodeBody(suite, w)
	assert.Equal(t, float64(2), response["total"])
	assert.Len(t, response["posts"], 2)
}

func (suite *HandlersTestSuite) TestGetUserPostsRejectsBadPagination() {
	base := "/api/v1/users/" + suite.otherUser.ID + "/posts"
	for _, query := range []string{"?offset=abc", "?offset=-1", "?limit=0", "?limit=abc"} {
		w := suite.doRequest("GET", base+query, nil, "", suite.testUser.ID)
		assert.Equal(suite.T(), http.StatusBadRequest, w.Code, "%s should be rejected", query)
	}
}
