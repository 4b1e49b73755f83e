package models

// StateUpdate is the partial output of a node. Only non-nil fields are merged;
// Messages are appended.
type StateUpdate struct {
	Topic          *string   `json:"topic,omitempty"`
	PostDraft      *string   `json:"post_draft,omitempty"`
	FinalPost      *string   `json:"final_post,omitempty"`
	IsApproved     *bool     `json:"is_approved,omitempty"`
	IterationCount *int      `json:"iteration_count,omitempty"`
	ImageAssetURN  *string   `json:"image_asset_urn,omitempty"`
	Messages       []Message `json:"messages,omitempty"`
}

// Fields lists the names of the state fields this update sets, in state order.
func (u StateUpdate) Fields() []string {
	fields := make([]string, 0, 7)

	if u.Topic != nil {
		fields = append(fields, "topic")
	}

	if u.PostDraft != nil {
		fields = append(fields, "post_draft")
	}

	if u.FinalPost != nil {
		fields = append(fields, "final_post")
	}

	if u.IsApproved != nil {
		fields = append(fields, "is_approved")
	}

	if u.IterationCount != nil {
		fields = append(fields, "iteration_count")
	}

	if u.ImageAssetURN != nil {
		fields = append(fields, "image_asset_urn")
	}

	if len(u.Messages) > 0 {
		fields = append(fields, "messages")
	}

	return fields
}

// Ptr returns a pointer to v. Nodes use it to build updates inline.
func Ptr[T any](v T) *T {
	return &v
}
