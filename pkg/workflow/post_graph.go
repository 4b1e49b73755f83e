package workflow

import (
	"github.com/dukex/postsync/pkg/models"
	"github.com/dukex/postsync/pkg/protocol"
)

// Node names of the post generation graph.
const (
	NodeTopicGenerator  = "topic_generator"
	NodeContentCreator  = "content_creator"
	NodeReviewer        = "reviewer"
	NodeImageGeneration = "image_generation"
	NodePostExecutor    = "post_executor"
)

// DefaultMaxIterations is the number of reviewer passes before approval is forced.
const DefaultMaxIterations = 1

// PostNodes are the five nodes of the post generation graph.
type PostNodes struct {
	TopicGenerator  protocol.Node
	ContentCreator  protocol.Node
	Reviewer        protocol.Node
	ImageGeneration protocol.Node
	PostExecutor    protocol.Node
}

// NewPostGraph builds and compiles:
//
//	topic_generator -> content_creator -> reviewer
//	reviewer -(approved)-> image_generation -> post_executor -> END
//	reviewer -(rework)-> content_creator
func NewPostGraph(nodes PostNodes) (*Graph, error) {
	graph := NewGraph().
		AddNode(nodes.TopicGenerator).
		AddNode(nodes.ContentCreator).
		AddNode(nodes.Reviewer).
		AddNode(nodes.ImageGeneration).
		AddNode(nodes.PostExecutor).
		SetEntryPoint(NodeTopicGenerator).
		AddEdge(NodeTopicGenerator, NodeContentCreator).
		AddEdge(NodeContentCreator, NodeReviewer).
		AddConditionalEdges(NodeReviewer, DecideToRework, map[string]string{
			NodeImageGeneration: NodeImageGeneration,
			NodeContentCreator:  NodeContentCreator,
		}).
		AddEdge(NodeImageGeneration, NodePostExecutor).
		AddEdge(NodePostExecutor, End)

	if err := graph.Compile(); err != nil {
		return nil, err
	}

	return graph, nil
}

// DecideToRework routes an approved draft to image generation and anything
// else back to the content creator.
func DecideToRework(state *models.WorkflowState) string {
	if state.IsApproved {
		return NodeImageGeneration
	}

	return NodeContentCreator
}
