package rpc

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vthunder/chronograph/internal/facade"
	"github.com/vthunder/chronograph/internal/search"
	"github.com/vthunder/chronograph/internal/store"
	"github.com/vthunder/chronograph/internal/traversal"
)

// Register binds every facade operation to an MCP tool on s.
func Register(s *server.MCPServer, f *facade.Facade) {
	s.AddTool(addDocumentTool(), handleAddDocument(f))
	s.AddTool(getDocumentTool(), handleGetDocument(f))
	s.AddTool(updateDocumentTool(), handleUpdateDocument(f))
	s.AddTool(deleteDocumentTool(), handleDeleteDocument(f))
	s.AddTool(listDocumentsTool(), handleListDocuments(f))
	s.AddTool(searchTool(), handleSearch(f))
	s.AddTool(addRelationshipTool(), handleAddRelationship(f))
	s.AddTool(getNeighborsTool(), handleGetNeighbors(f))
	s.AddTool(findPathTool(), handleFindPath(f))
	s.AddTool(findSimilarTool(), handleFindSimilar(f))
	s.AddTool(exploreGraphTool(), handleExploreGraph(f))
	s.AddTool(mapGraphTool(), handleMapGraph(f))
	s.AddTool(tagsTool(), handleTags(f))
	s.AddTool(getDocumentTimelineTool(), handleGetDocumentTimeline(f))
	s.AddTool(compareVersionsTool(), handleCompareVersions(f))
	s.AddTool(getCreatedBetweenTool(), handleGetCreatedBetween(f))
	s.AddTool(getModifiedBetweenTool(), handleGetModifiedBetween(f))
	s.AddTool(getDeletedBetweenTool(), handleGetDeletedBetween(f))
	s.AddTool(statsTool(), handleStats(f))
	s.AddTool(checkIntegrityTool(), handleCheckIntegrity(f))
	s.AddTool(rebuildSearchIndexTool(), handleRebuildSearchIndex(f))
}

func addDocumentTool() mcp.Tool {
	return mcp.NewTool("add_document",
		mcp.WithDescription("Create or update a versioned document. Re-adding an existing id creates a new version."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Document id")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Document content, up to 2 MiB")),
		mcp.WithObject("metadata", mcp.Description("Arbitrary JSON metadata (tags, keywords, path, type, etc.)")),
		mcp.WithString("valid_from", mcp.Description("ISO-8601 UTC instant this version becomes valid; defaults to now")),
	)
}

func handleAddDocument(f *facade.Facade) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		a := args(req)
		n, err := f.AddDocument(argString(a, "id"), argString(a, "content"), argMetadata(a, "metadata"), argString(a, "valid_from"))
		if err != nil {
			return errResult(err)
		}
		return jsonResult(n)
	}
}

func getDocumentTool() mcp.Tool {
	return mcp.NewTool("get_document",
		mcp.WithDescription("Return a document's current row, or the row valid at at_time when given."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Document id")),
		mcp.WithString("at_time", mcp.Description("ISO-8601 UTC instant to resolve as-of")),
	)
}

func handleGetDocument(f *facade.Facade) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		a := args(req)
		n, err := f.GetDocument(argString(a, "id"), argStringPtr(a, "at_time"))
		if err != nil {
			return errResult(err)
		}
		return jsonResult(n)
	}
}

func updateDocumentTool() mcp.Tool {
	return mcp.NewTool("update_document",
		mcp.WithDescription("Create a new version of an existing document, optionally merging metadata instead of replacing it."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Document id")),
		mcp.WithString("content", mcp.Description("New content; unchanged if omitted")),
		mcp.WithObject("metadata", mcp.Description("New metadata; unchanged if omitted")),
		mcp.WithBoolean("merge_metadata", mcp.Description("Shallow-merge metadata over the current metadata instead of replacing it")),
		mcp.WithString("valid_from", mcp.Description("ISO-8601 UTC instant this version becomes valid; defaults to now")),
	)
}

func handleUpdateDocument(f *facade.Facade) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		a := args(req)
		opts := facade.UpdateDocumentOptions{
			Content:       argStringPtr(a, "content"),
			Metadata:      argMetadata(a, "metadata"),
			MergeMetadata: argBool(a, "merge_metadata"),
			ValidFrom:     argString(a, "valid_from"),
		}
		n, err := f.UpdateDocument(argString(a, "id"), opts)
		if err != nil {
			return errResult(err)
		}
		return jsonResult(n)
	}
}

func deleteDocumentTool() mcp.Tool {
	return mcp.NewTool("delete_document",
		mcp.WithDescription("Hard-delete every version of a document and its incident edges."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Document id")),
	)
}

func handleDeleteDocument(f *facade.Facade) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		a := args(req)
		if err := f.DeleteDocument(argString(a, "id")); err != nil {
			return errResult(err)
		}
		return mcp.NewToolResultText("deleted"), nil
	}
}

func listDocumentsTool() mcp.Tool {
	return mcp.NewTool("list_documents",
		mcp.WithDescription("List the most recent current document versions, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum results, default 100")),
	)
}

func handleListDocuments(f *facade.Facade) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		a := args(req)
		nodes, err := f.ListDocuments(argInt(a, "limit", 100))
		if err != nil {
			return errResult(err)
		}
		return jsonResult(nodes)
	}
}

func searchTool() mcp.Tool {
	return mcp.NewTool("search",
		mcp.WithDescription("Smart search: optional full-text query composed with metadata filters over current documents."),
		mcp.WithString("query", mcp.Description("Full-text query")),
		mcp.WithArray("tags", mcp.Description("Required tags (all must be present)")),
		mcp.WithArray("keywords", mcp.Description("Required keywords (all must be present)")),
		mcp.WithArray("path_prefix", mcp.Description("Required path segments (containment, not necessarily contiguous)")),
		mcp.WithString("emoji", mcp.Description("Exact-match emoji")),
		mcp.WithString("type", mcp.Description("Exact-match document type")),
		mcp.WithString("author", mcp.Description("Exact-match author")),
		mcp.WithNumber("limit", mcp.Description("Maximum results, default 10")),
		mcp.WithString("sort_by", mcp.Description("created_at | id, default created_at")),
		mcp.WithString("sort_order", mcp.Description("asc | desc, default desc")),
	)
}

func filtersFromArgs(a map[string]any) search.Filters {
	return search.Filters{
		Tags:       argStringSlice(a, "tags"),
		Keywords:   argStringSlice(a, "keywords"),
		PathPrefix: argStringSlice(a, "path_prefix"),
		Emoji:      argString(a, "emoji"),
		Type:       argString(a, "type"),
		Author:     argString(a, "author"),
	}
}

func handleSearch(f *facade.Facade) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		a := args(req)
		opts := search.Options{
			Query:     argString(a, "query"),
			Filters:   filtersFromArgs(a),
			Limit:     argInt(a, "limit", 10),
			SortBy:    argString(a, "sort_by"),
			SortOrder: argString(a, "sort_order"),
		}
		nodes, err := f.Search(opts)
		if err != nil {
			return errResult(err)
		}
		return jsonResult(nodes)
	}
}

func addRelationshipTool() mcp.Tool {
	return mcp.NewTool("add_relationship",
		mcp.WithDescription("Create or update the current edge between two documents. Both endpoints must exist at valid_from, which must not precede either endpoint's own valid_from."),
		mcp.WithString("from", mcp.Required(), mcp.Description("Source document id")),
		mcp.WithString("to", mcp.Required(), mcp.Description("Target document id")),
		mcp.WithString("relation", mcp.Description("Relation label, default \"related\"")),
		mcp.WithNumber("weight", mcp.Description("Edge weight, default 1.0")),
		mcp.WithObject("metadata", mcp.Description("Arbitrary edge metadata")),
		mcp.WithString("valid_from", mcp.Description("ISO-8601 UTC instant the edge becomes valid; defaults to now")),
	)
}

func handleAddRelationship(f *facade.Facade) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		a := args(req)
		e, err := f.AddRelationship(argString(a, "from"), argString(a, "to"), argString(a, "relation"),
			argFloat(a, "weight", 1.0), argMetadata(a, "metadata"), argString(a, "valid_from"))
		if err != nil {
			return errResult(err)
		}
		return jsonResult(e)
	}
}

func getNeighborsTool() mcp.Tool {
	return mcp.NewTool("get_neighbors",
		mcp.WithDescription("Return the nodes reachable from a document within a bounded number of hops."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Document id")),
		mcp.WithString("direction", mcp.Description("outgoing | incoming | both, default outgoing")),
		mcp.WithNumber("depth", mcp.Description("Hop count, default 1")),
		mcp.WithNumber("max_results", mcp.Description("Cap on results, unlimited if omitted")),
		mcp.WithArray("relation_filter", mcp.Description("Restrict to these relation labels")),
		mcp.WithString("at_time", mcp.Description("ISO-8601 UTC instant; current edges if omitted")),
	)
}

func directionFromArg(a map[string]any) store.EdgeDirection {
	switch argString(a, "direction") {
	case "incoming":
		return store.DirIncoming
	case "both":
		return store.DirBoth
	default:
		return store.DirOutgoing
	}
}

func handleGetNeighbors(f *facade.Facade) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		a := args(req)
		opts := traversal.NeighborOptions{
			Depth:          argInt(a, "depth", 1),
			MaxResults:     argInt(a, "max_results", 0),
			RelationFilter: argStringSlice(a, "relation_filter"),
			AtTime:         argStringPtr(a, "at_time"),
		}
		neighbors, err := f.GetNeighbors(argString(a, "id"), directionFromArg(a), opts)
		if err != nil {
			return errResult(err)
		}
		return jsonResult(neighbors)
	}
}

func findPathTool() mcp.Tool {
	return mcp.NewTool("find_path",
		mcp.WithDescription("Find the first directed path between two documents via breadth-first search."),
		mcp.WithString("from", mcp.Required(), mcp.Description("Source document id")),
		mcp.WithString("to", mcp.Required(), mcp.Description("Target document id")),
		mcp.WithNumber("max_depth", mcp.Description("Maximum hop count, default 5")),
		mcp.WithString("at_time", mcp.Description("ISO-8601 UTC instant; current edges if omitted")),
	)
}

func handleFindPath(f *facade.Facade) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		a := args(req)
		path, err := f.FindPath(argString(a, "from"), argString(a, "to"), argInt(a, "max_depth", 5), argStringPtr(a, "at_time"))
		if err != nil {
			return errResult(err)
		}
		return jsonResult(path)
	}
}

func findSimilarTool() mcp.Tool {
	return mcp.NewTool("find_similar",
		mcp.WithDescription("Find documents whose stored embedding is closest to the given document's, by cosine similarity."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Document id")),
		mcp.WithNumber("limit", mcp.Description("Maximum results, default 10")),
	)
}

func handleFindSimilar(f *facade.Facade) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		a := args(req)
		hits, err := f.FindSimilar(argString(a, "id"), argInt(a, "limit", 10))
		if err != nil {
			return errResult(err)
		}
		return jsonResult(hits)
	}
}

func exploreGraphTool() mcp.Tool {
	return mcp.NewTool("explore_graph",
		mcp.WithDescription("Bounded breadth-first exploration from a start document, with optional tag/type filters."),
		mcp.WithString("start", mcp.Required(), mcp.Description("Start document id")),
		mcp.WithString("strategy", mcp.Description("Only \"breadth\" is supported; anything else falls back to it")),
		mcp.WithNumber("max_depth", mcp.Description("Maximum hop count, default 2")),
		mcp.WithNumber("max_nodes", mcp.Description("Maximum nodes visited, default 100")),
		mcp.WithArray("follow_relations", mcp.Description("Restrict traversal to these relation labels")),
		mcp.WithArray("filter_tags", mcp.Description("Visited nodes must contain all of these tags")),
		mcp.WithString("filter_type", mcp.Description("Visited nodes must match this type")),
		mcp.WithString("at_time", mcp.Description("ISO-8601 UTC instant; current nodes/edges if omitted")),
	)
}

func handleExploreGraph(f *facade.Facade) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		a := args(req)
		opts := traversal.ExploreOptions{
			Strategy:        argString(a, "strategy"),
			MaxDepth:        argInt(a, "max_depth", 2),
			MaxNodes:        argInt(a, "max_nodes", 100),
			FollowRelations: argStringSlice(a, "follow_relations"),
			Filters: traversal.ExploreFilters{
				Tags: argStringSlice(a, "filter_tags"),
				Type: argString(a, "filter_type"),
			},
			AtTime: argStringPtr(a, "at_time"),
		}
		result, err := f.ExploreGraph(argString(a, "start"), opts)
		if err != nil {
			return errResult(err)
		}
		return jsonResult(result)
	}
}

func mapGraphTool() mcp.Tool {
	return mcp.NewTool("map_graph",
		mcp.WithDescription("Assemble a bounded subgraph by scope (all, filtered, subgraph, temporal_slice) and render it as JSON or a Mermaid diagram."),
		mcp.WithString("scope", mcp.Required(), mcp.Description("all | filtered | subgraph | temporal_slice")),
		mcp.WithNumber("max_nodes", mcp.Description("Maximum nodes, default 100")),
		mcp.WithNumber("max_edges", mcp.Description("Maximum edges, default 500")),
		mcp.WithString("at_time", mcp.Description("ISO-8601 UTC instant (required for temporal_slice)")),
		mcp.WithArray("focus", mcp.Description("Focus document ids (subgraph scope)")),
		mcp.WithNumber("radius", mcp.Description("Per-focus exploration depth (subgraph scope), default 1")),
		mcp.WithArray("tags", mcp.Description("Metadata filter: required tags (filtered scope)")),
		mcp.WithString("type", mcp.Description("Metadata filter: exact document type (filtered scope)")),
		mcp.WithString("format", mcp.Description("json | mermaid, default json")),
	)
}

func handleMapGraph(f *facade.Facade) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		a := args(req)
		opts := traversal.MapOptions{
			Scope:    traversal.MapScope(argString(a, "scope")),
			MaxNodes: argInt(a, "max_nodes", 100),
			MaxEdges: argInt(a, "max_edges", 500),
			AtTime:   argStringPtr(a, "at_time"),
			Focus:    argStringSlice(a, "focus"),
			Radius:   argInt(a, "radius", 1),
			Filters: traversal.ExploreFilters{
				Tags: argStringSlice(a, "tags"),
				Type: argString(a, "type"),
			},
		}
		filters := filtersFromArgs(a)
		format := facade.MapFormatJSON
		if argString(a, "format") == "mermaid" {
			format = facade.MapFormatMermaid
		}

		out, err := f.MapGraph(opts, filters, format)
		if err != nil {
			return errResult(err)
		}
		if format == facade.MapFormatMermaid {
			return mcp.NewToolResultText(out.Diagram), nil
		}
		return jsonResult(out.Result)
	}
}

func tagsTool() mcp.Tool {
	return mcp.NewTool("tags",
		mcp.WithDescription("Dispatch a tag operation: add, remove, rename, list, or get."),
		mcp.WithString("action", mcp.Required(), mcp.Description("add | remove | rename | list | get")),
		mcp.WithString("document_id", mcp.Description("Target document id (add, remove, get)")),
		mcp.WithArray("document_filter_tags", mcp.Description("Bulk target: documents containing all of these tags (add, remove)")),
		mcp.WithArray("values", mcp.Description("Tags to add or remove")),
		mcp.WithString("from", mcp.Description("Tag to rename from (rename)")),
		mcp.WithString("to", mcp.Description("Tag to rename to (rename)")),
	)
}

func handleTags(f *facade.Facade) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		a := args(req)
		var filter *search.Filters
		if docTags := argStringSlice(a, "document_filter_tags"); len(docTags) > 0 {
			filter = &search.Filters{Tags: docTags}
		}
		resp, err := f.Tags(facade.TagsRequest{
			Action:         facade.TagsAction(argString(a, "action")),
			DocumentID:     argString(a, "document_id"),
			DocumentFilter: filter,
			Values:         argStringSlice(a, "values"),
			RenameFrom:     argString(a, "from"),
			RenameTo:       argString(a, "to"),
		})
		if err != nil {
			return errResult(err)
		}
		switch facade.TagsAction(argString(a, "action")) {
		case facade.TagsAdd, facade.TagsRemove, facade.TagsRename:
			return jsonResult(struct {
				Updated int `json:"updated"`
			}{Updated: resp.Updated})
		case facade.TagsList:
			return jsonResult(resp.List)
		default:
			return jsonResult(resp.Tags)
		}
	}
}

func getDocumentTimelineTool() mcp.Tool {
	return mcp.NewTool("get_document_timeline",
		mcp.WithDescription("Return a document's full version history with per-transition event classification."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Document id")),
	)
}

func handleGetDocumentTimeline(f *facade.Facade) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		a := args(req)
		entries, err := f.GetDocumentTimeline(argString(a, "id"))
		if err != nil {
			return errResult(err)
		}
		return jsonResult(entries)
	}
}

func compareVersionsTool() mcp.Tool {
	return mcp.NewTool("compare_versions",
		mcp.WithDescription("Return the structural delta between two versions of a document."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Document id")),
		mcp.WithNumber("v1", mcp.Required(), mcp.Description("First version number")),
		mcp.WithNumber("v2", mcp.Required(), mcp.Description("Second version number")),
	)
}

func handleCompareVersions(f *facade.Facade) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		a := args(req)
		diff, err := f.CompareVersions(argString(a, "id"), argInt(a, "v1", 1), argInt(a, "v2", 1))
		if err != nil {
			return errResult(err)
		}
		return jsonResult(diff)
	}
}

func getCreatedBetweenTool() mcp.Tool {
	return mcp.NewTool("get_created_between",
		mcp.WithDescription("Return documents whose valid_from falls within [start, end]."),
		mcp.WithString("start", mcp.Required(), mcp.Description("ISO-8601 UTC range start")),
		mcp.WithString("end", mcp.Required(), mcp.Description("ISO-8601 UTC range end")),
	)
}

func handleGetCreatedBetween(f *facade.Facade) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		a := args(req)
		nodes, err := f.GetCreatedBetween(argString(a, "start"), argString(a, "end"))
		if err != nil {
			return errResult(err)
		}
		return jsonResult(nodes)
	}
}

func getModifiedBetweenTool() mcp.Tool {
	return mcp.NewTool("get_modified_between",
		mcp.WithDescription("Return documents with version > 1 whose valid_from falls within [start, end]."),
		mcp.WithString("start", mcp.Required(), mcp.Description("ISO-8601 UTC range start")),
		mcp.WithString("end", mcp.Required(), mcp.Description("ISO-8601 UTC range end")),
	)
}

func handleGetModifiedBetween(f *facade.Facade) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		a := args(req)
		nodes, err := f.GetModifiedBetween(argString(a, "start"), argString(a, "end"))
		if err != nil {
			return errResult(err)
		}
		return jsonResult(nodes)
	}
}

func getDeletedBetweenTool() mcp.Tool {
	return mcp.NewTool("get_deleted_between",
		mcp.WithDescription("Return documents whose valid_until falls within [start, end]."),
		mcp.WithString("start", mcp.Required(), mcp.Description("ISO-8601 UTC range start")),
		mcp.WithString("end", mcp.Required(), mcp.Description("ISO-8601 UTC range end")),
	)
}

func handleGetDeletedBetween(f *facade.Facade) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		a := args(req)
		nodes, err := f.GetDeletedBetween(argString(a, "start"), argString(a, "end"))
		if err != nil {
			return errResult(err)
		}
		return jsonResult(nodes)
	}
}

func statsTool() mcp.Tool {
	return mcp.NewTool("stats",
		mcp.WithDescription("Return node count, edge count, and average degree."),
	)
}

func handleStats(f *facade.Facade) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		stats, err := f.Stats()
		if err != nil {
			return errResult(err)
		}
		return jsonResult(stats)
	}
}

func checkIntegrityTool() mcp.Tool {
	return mcp.NewTool("check_integrity",
		mcp.WithDescription("Audit the store for isolated nodes, dangling edge endpoints, and causality-inconsistent edges."),
	)
}

func handleCheckIntegrity(f *facade.Facade) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		report, err := f.Integrity()
		if err != nil {
			return errResult(err)
		}
		return jsonResult(report)
	}
}

func rebuildSearchIndexTool() mcp.Tool {
	return mcp.NewTool("rebuild_search_index",
		mcp.WithDescription("Re-derive the full-text and vector indices from current document rows."),
	)
}

func handleRebuildSearchIndex(f *facade.Facade) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ftsCount, vecCount, err := f.RebuildSearchIndex()
		if err != nil {
			return errResult(err)
		}
		return jsonResult(map[string]int{"fts_reindexed": ftsCount, "vectors_reindexed": vecCount})
	}
}
