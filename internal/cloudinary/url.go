package cloudinary

import (
	"fmt"
	"strings"
)

// Delivery transformations used by the feed, the gallery and avatars.
const (
	FeedTransform    = "f_auto,q_auto:good,dpr_auto,c_fit,w_500,h_360"
	GalleryTransform = "f_auto,q_auto:good,dpr_auto,c_limit,w_1200"
)

// Folders of the object store.
const (
	FolderPosts    = "uploads/posts"
	FolderPosters  = "uploads/posts/posters"
	FolderProfiles = "uploads/profiles"
)

func AvatarTransform(size int) string {
	return fmt.Sprintf("f_auto,q_auto:eco,dpr_auto,r_max,c_fit,w_%d,h_%d", size, size)
}

func IsCloudinary(url string) bool {
	return strings.Contains(url, "res.cloudinary.com")
}

// BuildURL inserts transforms right after /upload/. Foreign URLs and URLs
// without exactly one /upload/ segment are returned unchanged.
func BuildURL(url, transforms string) string {
	if !IsCloudinary(url) || transforms == "" {
		return url
	}
	parts := strings.Split(url, "/upload/")
	if len(parts) != 2 {
		return url
	}
	return parts[0] + "/upload/" + transforms + "/" + parts[1]
}
