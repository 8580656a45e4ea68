package tui

// helpText is the key reference behind ?. Plain text; the overlay
// viewport scrolls it when the terminal is short.
const helpText = `Navigation
  enter        open the folder (or drive) under the cursor
  backspace    go to the parent folder; to the drive list from a root
  tab / ← →    switch between the folder and file panes
  ↑ ↓ (k j)    move the cursor
  [ ]          previous / next page
  r            refetch the open folder from the agent

Selection
  space        select or deselect the entry under the cursor
  a            select everything visible in the focused pane
  esc          clear the filter, then the selection

Actions on the selection (or the cursor entry)
  c / x        copy / cut to the clipboard
  v            paste into the open folder
  d            delete (asks first)
  z            zip into a new archive
  D            download to the launch folder

Files
  t            tail the file under the cursor (text files only);
               space pauses, esc closes

View
  /            filter the listing; enter keeps it, esc clears it
  s            cycle the sort key (name, size, date)
  o            flip the sort order
  p            cycle the focused pane's page size (25, 50, 100, all)
  < >          move the pane divider

Bookmarks
  b            bookmark the open folder (again removes it)
  g            jump to a bookmark

q quits. The last folder, bookmarks, divider and page sizes are
remembered for the next session.`
