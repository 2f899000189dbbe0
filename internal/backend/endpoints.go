package backend

const (
	EndpointConnectedAccounts = "/api/connected_accounts"
	EndpointPendingPosts      = "/api/instagram/get_pending_posts"
	EndpointInstagramLogin    = "/api/instagram/login"
	EndpointSchedulePost      = "/api/instagram/schedule_post"
)

// maxResponseSize caps how much of a response body is read.
const maxResponseSize = 10 << 20
