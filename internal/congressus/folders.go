package congressus

// parentFolderID is the Congressus folder that holds all streeplijst
// product folders. v30 lists its children from upstream; v20 serves the
// static configuration below instead.
const parentFolderID = 1989

// Folder describes one product category shown on the kiosk.
type Folder struct {
	Name  string `json:"name"`
	ID    int    `json:"id"`
	Media string `json:"media"` // url to the folder image
}

// folderConfiguration is the static folder set served by the v20 facade.
// Folder ids are assigned by Congressus and found in the manager URL of
// each folder; image urls are not part of the upstream folder payload, so
// they are maintained here.
var folderConfiguration = []Folder{
	{Name: "Chips", ID: 1991, Media: "https://www.paradoks.utwente.nl/_media/889901/afa76d9d15c44705a9b7ef4da818ef2c/view"},
	{Name: "Soep", ID: 1992, Media: "https://www.paradoks.utwente.nl/_media/889902/d1de3e30149f48238d7df0566454a55f/view"},
	{Name: "Healthy", ID: 1993, Media: "https://www.paradoks.utwente.nl/_media/889906/447f0d874bcb48479b43dede97149183/view"},
	{Name: "Diepvries", ID: 1994, Media: "https://www.paradoks.utwente.nl/_media/889938/a1be36b57e9d4cd4aba77a0a169ad8ed/view"},
	{Name: "Snoep", ID: 1995, Media: "https://www.paradoks.utwente.nl/_media/889918/eda7aefce97745488c867c1fd46e580b/view"},
	{Name: "Koek", ID: 1996, Media: "https://www.paradoks.utwente.nl/_media/889908/5bbaa93d68fb4886974309dd09e3920f/view"},
	{Name: "Repen", ID: 1997, Media: "https://www.paradoks.utwente.nl/_media/889915/596ad94dc4fc42b6910d9648fed06aad/view"},
	{Name: "Speciaal", ID: 1998, Media: "https://www.paradoks.utwente.nl/_media/889910/63b78b80f2224dff8c46bfb8456d0bc8/view"},
	{Name: "Frisdrank", ID: 2600, Media: "https://www.paradoks.utwente.nl/_media/1074042/9737731eab49463eb625490e9d2d1b20/view"},
}
