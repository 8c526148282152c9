// Package tasks defines the fixed schema of extension points a build exposes
// to plugins, and the coordinators that let plugins tap them.
//
// The schema is versioned (SchemaVersion). Plugins populate hooks; they
// never redefine them. Cross-plugin extension goes through the capability
// registry on Configuration and WorkspaceConfiguration: one plugin provides a
// hook under a typed Key, other plugins look it up and tap it.
//
// Two task levels exist:
//
//   - Workspace: CreateWorkspaceTasks applies the workspace plugins to a
//     WorkspaceTasks whose Build series receives a BuildWorkspaceTask. The
//     task's hooks cover workspace configuration and the pre and post phases.
//   - Project: CreateProjectTasks applies the project plugins to a
//     ProjectTasks whose Build series receives a BuildProjectTask. The task's
//     BuildProjectHooks fire in two tiers: Project for every project, then
//     the hook matching the project kind.
//
// Coordinators perform no build logic. Every hook instance is created fresh
// per build invocation; nothing here is cached across invocations.
package tasks
