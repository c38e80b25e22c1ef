// Package agentgraph executes LLM agents as typed, directed graphs.
//
// A strategy is an immutable graph of nodes (typed computations) and
// edges (conditional, transforming transitions), built with NewStrategy
// and validated once by Build. An Agent binds a strategy to a model
// executor and a tool registry and runs it: execution walks the graph
// from the implicit start node until the implicit finish node runs, a
// node fails, or the iteration budget is exhausted.
//
// Cross-cutting behavior lives in features registered on the agent's
// Pipeline. Features observe the run lifecycle (run, strategy, node,
// LLM, and tool events), and may substitute the execution environment
// itself, which is how mocking and similar testing concerns are
// implemented without touching the engine.
//
// A node can interrupt its run by returning a ReentrySignal after
// installing an execution point on the Context; the runner then
// re-enters the graph at that point. Checkpoint-based rollback and
// external resume (see feature/persistence) are built on this
// mechanism.
//
// Basic use:
//
//	strategy := agentgraph.NewStrategy[string, string]("echo").
//		AddNode(agentgraph.NewNode("reply", func(ctx *agentgraph.Context, q string) (string, error) {
//			msgs, err := ctx.SendMessage(q)
//			if err != nil {
//				return "", err
//			}
//			return msgs[len(msgs)-1].Content, nil
//		})).
//		AddEdge(agentgraph.Forward[string](agentgraph.StartNode, "reply")).
//		AddEdge(agentgraph.Forward[string]("reply", agentgraph.FinishNode)).
//		MustBuild()
//
//	agent, err := agentgraph.NewAgent(strategy, executor,
//		agentgraph.WithModel("gpt-4o"),
//		agentgraph.WithSystemPrompt("You are terse."))
//	if err != nil {
//		return err
//	}
//	out, err := agent.Run(ctx, "hello")
package agentgraph
