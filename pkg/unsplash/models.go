package unsplash

import "time"

// URLs are the rendition links of a photo.
type URLs struct {
	Raw     string `json:"raw"`
	Full    string `json:"full"`
	Regular string `json:"regular"`
	Small   string `json:"small"`
	Thumb   string `json:"thumb"`
}

// Links are the API and web links of a resource.
type Links struct {
	Self             string `json:"self"`
	HTML             string `json:"html"`
	Download         string `json:"download,omitempty"`
	DownloadLocation string `json:"download_location,omitempty"`
	Photos           string `json:"photos,omitempty"`
	Likes            string `json:"likes,omitempty"`
}

// ProfileImage holds the avatar renditions of a user.
type ProfileImage struct {
	Small  string `json:"small"`
	Medium string `json:"medium"`
	Large  string `json:"large"`
}

// User is an Unsplash user.
type User struct {
	ID                string       `json:"id"`
	Username          string       `json:"username"`
	Name              string       `json:"name"`
	FirstName         string       `json:"first_name"`
	LastName          string       `json:"last_name"`
	Bio               string       `json:"bio"`
	Location          string       `json:"location"`
	PortfolioURL      string       `json:"portfolio_url"`
	TotalPhotos       int          `json:"total_photos"`
	TotalLikes        int          `json:"total_likes"`
	TotalCollections  int          `json:"total_collections"`
	ProfileImage      ProfileImage `json:"profile_image"`
	Links             Links        `json:"links"`
	UpdatedAt         *time.Time   `json:"updated_at,omitempty"`
	InstagramUsername string       `json:"instagram_username,omitempty"`
	TwitterUsername   string       `json:"twitter_username,omitempty"`
}

// Photo is an Unsplash photo.
type Photo struct {
	ID             string     `json:"id"`
	Slug           string     `json:"slug,omitempty"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
	Width          int        `json:"width"`
	Height         int        `json:"height"`
	Color          string     `json:"color"`
	BlurHash       string     `json:"blur_hash"`
	Likes          int        `json:"likes"`
	LikedByUser    bool       `json:"liked_by_user"`
	Description    string     `json:"description"`
	AltDescription string     `json:"alt_description"`
	URLs           URLs       `json:"urls"`
	Links          Links      `json:"links"`
	User           *User      `json:"user,omitempty"`
	Downloads      int        `json:"downloads,omitempty"`
	Views          int        `json:"views,omitempty"`
	Exif           *Exif      `json:"exif,omitempty"`
	Location       *Location  `json:"location,omitempty"`
}

// Exif holds camera metadata of a photo.
type Exif struct {
	Make         string `json:"make"`
	Model        string `json:"model"`
	ExposureTime string `json:"exposure_time"`
	Aperture     string `json:"aperture"`
	FocalLength  string `json:"focal_length"`
	ISO          int    `json:"iso"`
}

// Location is where a photo was taken.
type Location struct {
	Name    string `json:"name"`
	City    string `json:"city"`
	Country string `json:"country"`
}

// Collection is a curated set of photos.
type Collection struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
	TotalPhotos int        `json:"total_photos"`
	Private     bool       `json:"private"`
	CoverPhoto  *Photo     `json:"cover_photo,omitempty"`
	User        *User      `json:"user,omitempty"`
	Links       Links      `json:"links"`
}

// Topic is an editorial topic.
type Topic struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
	Featured    bool       `json:"featured"`
	TotalPhotos int        `json:"total_photos"`
	CoverPhoto  *Photo     `json:"cover_photo,omitempty"`
	Links       Links      `json:"links"`
}

// SearchResult is the envelope of the search endpoints.
type SearchResult[T any] struct {
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
	Results    []T `json:"results"`
}

// List is one page of a list endpoint.
type List[T any] struct {
	Items []T

	// Total is the number of items across all pages, or -1 when the
	// endpoint did not report it.
	Total int

	// TotalPages is derived from Total and the page size, or -1.
	TotalPages int
}
